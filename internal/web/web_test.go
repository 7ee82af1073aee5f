package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbot/internal/chat"
	"campusbot/internal/config"
	"campusbot/internal/model"
	"campusbot/internal/query"
)

var ict = time.FixedZone("ICT", 7*3600)

var testEvents = chat.StaticEvents{
	{ID: "1", Title: "AI Workshop", Date: "2025-03-01T14:00:00", Location: "Hall B", Category: "technical", Status: "upcoming", Tags: []string{"ai"}},
	{ID: "2", Title: "Lantern Night", Date: "2025-03-04", Location: "Main Square", Category: "cultural", Status: "upcoming"},
	{ID: "3", Title: "Chess Open", Date: "2025-02-20", Location: "Library", Category: "sport", Status: "past"},
}

func newTestServer(t *testing.T, cfg *config.Config, backend chat.Backend) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	in := query.NewInterpreter(query.WithClock(func() time.Time {
		return time.Date(2025, 3, 1, 8, 0, 0, 0, ict)
	}))
	engine := chat.NewEngine(testEvents,
		chat.WithInterpreter(in),
		chat.WithResultDelay(0),
		chat.WithBackend(backend),
	)
	return NewServer(cfg, engine, testEvents)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthAndWidget(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/widget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	w := decode[config.WidgetConfig](t, rec)
	assert.Equal(t, "Campus Events Assistant", w.Title)
	assert.NotEmpty(t, w.Suggestions)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "s3cret"}
	h := newTestServer(t, cfg, nil).Handler()

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, h, http.MethodGet, "/api/widget", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/widget", nil)
	req.SetBasicAuth("admin", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEvents(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[eventsResponse](t, rec)
	require.Equal(t, 3, all.Count)
	assert.Equal(t, "Chess Open", all.Events[0].Title, "sorted by date")

	rec = doJSON(t, h, http.MethodGet, "/api/events?q="+strings.ReplaceAll("events today tag:ai", " ", "+"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, filtered["count"])
	intent := filtered["intent"].(map[string]any)
	assert.Equal(t, "event_search", intent["kind"])

	rec = doJSON(t, h, http.MethodGet, "/api/events?q=hello", nil)
	chatQuery := decode[map[string]any](t, rec)
	assert.EqualValues(t, 3, chatQuery["count"], "chat queries list everything")
	assert.Equal(t, "chat", chatQuery["intent"].(map[string]any)["kind"])
}

func TestInterpret(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/interpret", map[string]string{"query": "cultural events next week"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "event_search", got["kind"])
	preds := got["predicates"].(map[string]any)
	assert.Equal(t, "cultural", preds["category"])
	assert.Equal(t, "next week", preds["range"].(map[string]any)["label"])

	rec = doJSON(t, h, http.MethodPost, "/api/interpret", map[string]string{"prompt": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatConversation(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	start := decode[chatResponse](t, rec)
	require.NotEmpty(t, start.SessionID)
	require.Len(t, start.Messages, 1, "greeting only")

	rec = doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{SessionID: start.SessionID, Message: "events today"})
	require.Equal(t, http.StatusOK, rec.Code)
	turn := decode[chatResponse](t, rec)
	assert.Equal(t, start.SessionID, turn.SessionID)
	assert.False(t, turn.Loading)
	require.Len(t, turn.Messages, 3)
	last := turn.Messages[2]
	assert.Equal(t, model.RoleAssistant, last.Role)
	require.NotNil(t, last.Result)
	assert.Equal(t, "AI Workshop", last.Result.Items[0].Title)

	rec = doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{SessionID: "expired", Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decode[chatResponse](t, rec)
	assert.NotEqual(t, "expired", fresh.SessionID)
	assert.Len(t, fresh.Messages, 3)
}

type blockingBackend struct {
	release chan struct{}
}

func (b *blockingBackend) Send(ctx context.Context, message string, _ []model.Message) (string, error) {
	<-b.release
	return "echo: " + message, nil
}

func TestChatBusyReturnsConflict(t *testing.T) {
	backend := &blockingBackend{release: make(chan struct{})}
	srv := newTestServer(t, nil, backend)
	h := srv.Handler()

	start := decode[chatResponse](t, doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{}))
	sess, created := srv.sessions.acquire(start.SessionID)
	require.False(t, created)

	var wg sync.WaitGroup
	wg.Add(1)
	var pending *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		pending = doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{SessionID: start.SessionID, Message: "tell me a joke"})
	}()
	require.Eventually(t, sess.Loading, time.Second, 5*time.Millisecond)

	rec := doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{SessionID: start.SessionID, Message: "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(backend.release)
	wg.Wait()
	require.Equal(t, http.StatusOK, pending.Code)
	done := decode[chatResponse](t, pending)
	assert.Equal(t, "echo: tell me a joke", done.Messages[len(done.Messages)-1].Content)
}

func TestCloseChat(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	h := srv.Handler()

	start := decode[chatResponse](t, doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{}))
	assert.Equal(t, 1, srv.sessions.len())

	rec := doJSON(t, h, http.MethodDelete, "/api/chat/"+start.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, srv.sessions.len())

	rec = doJSON(t, h, http.MethodDelete, "/api/chat/"+start.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticAndUnknownAPI(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Campus Events Assistant")

	rec = doJSON(t, h, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
