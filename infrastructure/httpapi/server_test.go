package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/demetriomjr/real-state-crm/auth"
	"github.com/demetriomjr/real-state-crm/domain/chat"
	"github.com/demetriomjr/real-state-crm/domain/crm"
	"github.com/demetriomjr/real-state-crm/infrastructure/search"
	"github.com/demetriomjr/real-state-crm/mocks"
	"github.com/demetriomjr/real-state-crm/projection"
	"github.com/demetriomjr/real-state-crm/repositories"
	"github.com/demetriomjr/real-state-crm/runtime"
	"github.com/demetriomjr/real-state-crm/services"
)

type apiFixture struct {
	api     *httptest.Server
	hub     *runtime.Hub
	tokens  *auth.TokenManager
	gateway *mocks.MockOutboundGateway
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	hub := runtime.NewHub(log, clock.New(), 30*time.Second, 5*time.Minute)
	t.Cleanup(hub.Shutdown)

	gateway := mocks.NewMockOutboundGateway(gomock.NewController(t))
	recent := projection.NewRecentActivity(20)
	messages := services.NewMessageService(
		log,
		repositories.NewMessageRepository(db, log, nil),
		search.NewMessageIndex(writer, log),
		projection.NewTap(log, recent, hub),
		gateway,
		clock.New(),
	)
	crmService := services.NewCRMService(log, repositories.NewCRMRepository(db, log), clock.New())
	tokens := auth.NewTokenManager("test_secret_key_long_enough_2026", time.Hour)

	server := NewServer(log, hub, messages, crmService, tokens, recent, 16)
	api := httptest.NewServer(server.Router())
	t.Cleanup(api.Close)

	return apiFixture{api: api, hub: hub, tokens: tokens, gateway: gateway}
}

func (f apiFixture) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, f.api.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := f.api.Client().Do(request)
	require.NoError(t, err)
	return response
}

func decodeBody[T any](t *testing.T, response *http.Response) T {
	t.Helper()
	defer func() { _ = response.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(response.Body).Decode(&out))
	return out
}

func Test_API_Requires_Token(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	response := f.request(t, http.MethodGet, "/api/leads", "", nil)
	defer func() { _ = response.Body.Close() }()

	req.Equal(http.StatusUnauthorized, response.StatusCode)
}

func Test_PostMessage_Then_History(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	// When the gateway webhook ingests a message
	response := f.request(t, http.MethodPost, "/api/messages", token, map[string]string{
		"chatId":   "chat-1",
		"senderId": "+33612345678",
		"text":     "is the loft still available?",
	})
	req.Equal(http.StatusCreated, response.StatusCode)
	created := decodeBody[chat.Message](t, response)
	req.False(created.FromMe)

	// Then history returns it
	response = f.request(t, http.MethodGet, "/api/chats/chat-1/messages", token, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	page := decodeBody[messagesPage](t, response)
	req.Len(page.Messages, 1)
	req.Equal(created.ID, page.Messages[0].ID)

	// And the tenant-scoped search finds it
	response = f.request(t, http.MethodGet, "/api/messages/search?q=loft", token, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	hits := decodeBody[map[string][]search.Hit](t, response)
	req.Len(hits["hits"], 1)
}

func Test_PostMessage_Without_Text_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	response := f.request(t, http.MethodPost, "/api/messages", token, map[string]string{
		"chatId":   "chat-1",
		"senderId": "+33612345678",
	})
	defer func() { _ = response.Body.Close() }()

	req.Equal(http.StatusBadRequest, response.StatusCode)
}

func Test_Stream_Delivers_Live_Frame(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	// Given an open SSE stream on the chat
	stream := f.request(t, http.MethodGet, "/api/chats/chat-1/stream", token, nil)
	defer func() { _ = stream.Body.Close() }()
	req.Equal(http.StatusOK, stream.StatusCode)
	req.Equal("text/event-stream", stream.Header.Get("Content-Type"))
	req.Eventually(func() bool { return f.hub.ActiveCount() == 1 }, time.Second, 10*time.Millisecond)

	// When another session ingests a message for that chat
	engineToken, err := f.tokens.Generate("engine", "biz-1", nil)
	req.NoError(err)
	response := f.request(t, http.MethodPost, "/api/messages", engineToken, map[string]string{
		"chatId":   "chat-1",
		"senderId": "+33612345678",
		"text":     "hi",
	})
	_ = response.Body.Close()
	req.Equal(http.StatusCreated, response.StatusCode)

	// Then the stream carries one SSE frame with the message payload
	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	req.NoError(err)
	req.True(strings.HasPrefix(line, "data: "))
	blank, err := reader.ReadString('\n')
	req.NoError(err)
	req.Equal("\n", blank)

	var payload chat.Message
	req.NoError(json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSuffix(line, "\n"), "data: ")), &payload))
	req.Equal("hi", payload.Text)
	req.Equal("chat-1", payload.ChatID)
}

func Test_Stream_Replays_Messages_Cached_While_Offline(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	// Given a message ingested while nobody watches the chat
	response := f.request(t, http.MethodPost, "/api/messages", token, map[string]string{
		"chatId":   "chat-9",
		"senderId": "+33612345678",
		"text":     "anyone there?",
	})
	_ = response.Body.Close()
	req.Equal(http.StatusCreated, response.StatusCode)
	req.Equal(1, f.hub.PendingCount())

	// When a stream opens with the client's last known timestamp
	since := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)
	stream := f.request(t, http.MethodGet, "/api/chats/chat-9/stream?since="+since, token, nil)
	defer func() { _ = stream.Body.Close() }()
	req.Equal(http.StatusOK, stream.StatusCode)

	// Then the cached message is the first frame on the wire
	line, err := bufio.NewReader(stream.Body).ReadString('\n')
	req.NoError(err)

	var payload chat.Message
	req.NoError(json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSuffix(line, "\n"), "data: ")), &payload))
	req.Equal("anyone there?", payload.Text)
	req.Equal(0, f.hub.PendingCount())
}

func Test_Reply_Forwards_To_Automation_Engine(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-7", "biz-1", nil)
	req.NoError(err)

	f.gateway.EXPECT().
		SendText(gomock.Any(), "biz-1", "chat-1", "on my way").
		Return(nil).
		Times(1)

	response := f.request(t, http.MethodPost, "/api/chats/chat-1/reply", token, map[string]string{
		"text": "on my way",
	})
	req.Equal(http.StatusCreated, response.StatusCode)

	message := decodeBody[chat.Message](t, response)
	req.True(message.FromMe)
	req.Equal("agent-7", message.SenderID)
}

func Test_Onboard_Issues_A_Working_Token(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	// Given a fresh tenant onboarded without any prior token
	response := f.request(t, http.MethodPost, "/api/onboard", "", map[string]string{
		"businessName": "Riverside Realty",
		"country":      "FR",
		"adminName":    "Ada Lovelace",
		"adminEmail":   "ada@riverside.example",
	})
	req.Equal(http.StatusCreated, response.StatusCode)
	onboarded := decodeBody[onboardResponse](t, response)
	req.NotEmpty(onboarded.Token)
	req.Equal(onboarded.Business.ID.String(), onboarded.Admin.BusinessID)

	// Then the returned token opens the tenant-scoped API
	response = f.request(t, http.MethodGet, "/api/people", onboarded.Token, nil)
	defer func() { _ = response.Body.Close() }()
	req.Equal(http.StatusOK, response.StatusCode)
}

func Test_CRM_Flow_Over_HTTP(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	response := f.request(t, http.MethodPost, "/api/people", token, map[string]string{
		"fullName": "Ada Lovelace",
		"phone":    "+33612345678",
	})
	req.Equal(http.StatusCreated, response.StatusCode)
	person := decodeBody[crm.Person](t, response)

	response = f.request(t, http.MethodPost, "/api/leads", token, map[string]string{
		"personId": person.ID.String(),
		"source":   "whatsapp",
	})
	req.Equal(http.StatusCreated, response.StatusCode)
	lead := decodeBody[crm.Lead](t, response)
	req.Equal("new", lead.Stage)

	response = f.request(t, http.MethodPost, "/api/leads/"+lead.ID.String()+"/convert", token, nil)
	req.Equal(http.StatusCreated, response.StatusCode)
	customer := decodeBody[crm.Customer](t, response)
	req.Equal(person.ID.String(), customer.PersonID)

	response = f.request(t, http.MethodGet, "/api/customers", token, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	customers := decodeBody[map[string][]crm.Customer](t, response)
	req.Len(customers["customers"], 1)

	response = f.request(t, http.MethodGet, "/api/people/"+person.ID.String(), token, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	fetched := decodeBody[crm.Person](t, response)
	req.Equal(person.ID, fetched.ID)
}

func Test_Convert_Unknown_Lead_Is_404(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	response := f.request(t, http.MethodPost, "/api/leads/00000000-0000-0000-0000-000000000000/convert", token, nil)
	defer func() { _ = response.Body.Close() }()

	req.Equal(http.StatusNotFound, response.StatusCode)
}

func Test_Stats_Snapshot(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	response := f.request(t, http.MethodGet, "/internal/stats", "", nil)
	req.Equal(http.StatusOK, response.StatusCode)

	stats := decodeBody[statsResponse](t, response)
	req.Equal(0, stats.ActiveSubscriptions)
	req.Equal(0, stats.PendingMessages)
	req.Positive(stats.Goroutines)
}

func Test_Stats_Reports_Recent_Chat_Activity(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token, err := f.tokens.Generate("agent-1", "biz-1", nil)
	req.NoError(err)

	response := f.request(t, http.MethodPost, "/api/messages", token, map[string]string{
		"chatId":   "chat-1",
		"senderId": "+33612345678",
		"text":     "hi",
	})
	_ = response.Body.Close()
	req.Equal(http.StatusCreated, response.StatusCode)

	response = f.request(t, http.MethodGet, "/internal/stats?chat=chat-1", "", nil)
	req.Equal(http.StatusOK, response.StatusCode)

	stats := decodeBody[statsResponse](t, response)
	req.Len(stats.RecentMessages, 1)
	req.Equal("hi", stats.RecentMessages[0].Text)
}
