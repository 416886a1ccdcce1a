package test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/demetriomjr/real-state-crm/auth"
	"github.com/demetriomjr/real-state-crm/domain/chat"
	"github.com/demetriomjr/real-state-crm/infrastructure/httpapi"
	"github.com/demetriomjr/real-state-crm/infrastructure/n8n"
	"github.com/demetriomjr/real-state-crm/infrastructure/search"
	"github.com/demetriomjr/real-state-crm/projection"
	"github.com/demetriomjr/real-state-crm/repositories"
	"github.com/demetriomjr/real-state-crm/runtime"
	"github.com/demetriomjr/real-state-crm/services"
)

// Test_Scenario drives the full stack over real HTTP: a staff agent opens
// an SSE stream, the automation engine relays an inbound WhatsApp message,
// the agent answers, and a message ingested while nobody watches the chat
// is replayed when a stream finally opens.
func Test_Scenario(t *testing.T) {
	req := require.New(t)
	config, err := LoadConfig()
	req.NoError(err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	// Fake automation engine capturing outbound replies
	outbound := make(chan string, 1)
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		outbound <- body.Text
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(engine.Close)

	hub := runtime.NewHub(log, clock.New(), config.HeartbeatInterval, config.IdleTimeout)
	t.Cleanup(hub.Shutdown)

	recent := projection.NewRecentActivity(20)
	messages := services.NewMessageService(
		log,
		repositories.NewMessageRepository(db, log, nil),
		search.NewMessageIndex(writer, log),
		projection.NewTap(log, recent, hub),
		n8n.NewClient(log, engine.URL, time.Second),
		clock.New(),
	)
	crmService := services.NewCRMService(log, repositories.NewCRMRepository(db, log), clock.New())
	tokens := auth.NewTokenManager("integration_secret_key_2026_xx", time.Hour)

	api := httptest.NewServer(
		httpapi.NewServer(log, hub, messages, crmService, tokens, recent, config.StreamBuffer).Router(),
	)
	t.Cleanup(api.Close)

	agentToken, err := tokens.Generate("agent-1", "biz-1", []string{"agent"})
	req.NoError(err)
	engineToken, err := tokens.Generate("engine", "biz-1", []string{"engine"})
	req.NoError(err)

	// 1. The agent opens a live stream on the contact's chat
	stream := openStream(t, api, agentToken, "/api/chats/chat-1/stream")
	frames := bufio.NewReader(stream.Body)
	req.Eventually(func() bool { return hub.ActiveCount() == 1 }, config.WaitTimeout, 10*time.Millisecond)

	// 2. The engine relays an inbound WhatsApp message
	post(t, api, engineToken, "/api/messages", map[string]string{
		"chatId":   "chat-1",
		"senderId": "+33612345678",
		"text":     "is the riverside duplex still available?",
	})

	inbound := readFrame(t, frames)
	req.Equal("is the riverside duplex still available?", inbound.Text)
	req.False(inbound.FromMe)

	// 3. The agent replies; the engine receives the outbound text and the
	// agent's own stream carries the reply frame
	post(t, api, agentToken, "/api/chats/chat-1/reply", map[string]string{
		"text": "yes, want to visit tomorrow?",
	})

	select {
	case text := <-outbound:
		req.Equal("yes, want to visit tomorrow?", text)
	case <-time.After(config.WaitTimeout):
		req.Fail("Timeout: reply never reached the automation engine")
	}
	reply := readFrame(t, frames)
	req.True(reply.FromMe)
	req.Equal("agent-1", reply.SenderID)
	req.NoError(stream.Body.Close())

	// 4. A message lands while nobody watches the chat: it is cached, then
	// replayed as the first frame once a stream opens
	post(t, api, engineToken, "/api/messages", map[string]string{
		"chatId":   "chat-2",
		"senderId": "+33698765432",
		"text":     "hello?",
	})
	req.Eventually(func() bool { return hub.PendingCount() == 1 }, config.WaitTimeout, 10*time.Millisecond)

	late := openStream(t, api, agentToken, "/api/chats/chat-2/stream")
	defer func() { _ = late.Body.Close() }()
	cached := readFrame(t, bufio.NewReader(late.Body))
	req.Equal("hello?", cached.Text)
	req.Equal(0, hub.PendingCount())
}

func openStream(t *testing.T, api *httptest.Server, token, path string) *http.Response {
	t.Helper()
	request, err := http.NewRequest(http.MethodGet, api.URL+path, nil)
	require.NoError(t, err)
	request.Header.Set("Authorization", "Bearer "+token)
	response, err := api.Client().Do(request)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)
	return response
}

func post(t *testing.T, api *httptest.Server, token, path string, body map[string]string) {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	request, err := http.NewRequest(http.MethodPost, api.URL+path, bytes.NewReader(encoded))
	require.NoError(t, err)
	request.Header.Set("Authorization", "Bearer "+token)
	response, err := api.Client().Do(request)
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()
	require.Equal(t, http.StatusCreated, response.StatusCode)
}

// readFrame consumes one "data: <JSON>\n\n" frame from the stream.
func readFrame(t *testing.T, reader *bufio.Reader) chat.Message {
	t.Helper()
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))
	blank, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "\n", blank)

	var message chat.Message
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSuffix(line, "\n"), "data: ")), &message))
	return message
}
