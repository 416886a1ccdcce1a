// Package n8n talks to the automation engine that owns the actual
// WhatsApp session. The backend never speaks to WhatsApp directly; every
// outbound message goes through the engine's webhook and the engine
// handles delivery, retries and session state.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/demetriomjr/real-state-crm/contract"
)

var _ contract.OutboundGateway = (*Client)(nil)

type Client struct {
	log        *slog.Logger
	client     *http.Client
	webhookURL string
}

func NewClient(log *slog.Logger, webhookURL string, timeout time.Duration) *Client {
	return &Client{
		log:        log,
		client:     &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
	}
}

type outboundText struct {
	TenantID string `json:"tenantId"`
	ChatID   string `json:"chatId"`
	Text     string `json:"text"`
}

// SendText posts one staff reply to the engine's webhook. A non-2xx answer
// is an error for the caller to log; the engine keeps its own retry queue,
// so the backend never retries here.
func (c *Client) SendText(ctx context.Context, tenantID, chatID, text string) error {
	payload, err := json.Marshal(outboundText{TenantID: tenantID, ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshalling outbound message: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("calling automation engine: %w", err)
	}
	defer func() { _ = response.Body.Close() }()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("automation engine answered %s", response.Status)
	}
	c.log.Debug("Outbound message accepted by engine", "tenant", tenantID, "chat", chatID)
	return nil
}
