package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioai/folio/internal/graph"
)

type mockProcessor struct {
	turn    graph.Turn
	err     error
	lastMsg string
	calls   int
}

func (m *mockProcessor) ProcessTurn(ctx context.Context, userMessage string, prior []graph.Message) (graph.Turn, error) {
	m.calls++
	m.lastMsg = userMessage
	return m.turn, m.err
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func chatMux(bot TurnProcessor) http.Handler {
	mux := http.NewServeMux()
	NewChatHandler(bot, nil).RegisterRoutes(mux)
	return mux
}

func TestChatSuccess(t *testing.T) {
	bot := &mockProcessor{turn: graph.Turn{
		Response: "I work with Go.",
		Messages: []graph.Message{
			{Role: graph.RoleUser, Content: "What are your skills?"},
			{Role: graph.RoleAssistant, Content: "I work with Go."},
		},
	}}

	w := postChat(t, chatMux(bot), `{"message":"What are your skills?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "I work with Go.", resp.Response)
	assert.Len(t, resp.Messages, 2)
	assert.Equal(t, "What are your skills?", bot.lastMsg)
}

func TestChatWithHistory(t *testing.T) {
	bot := &mockProcessor{turn: graph.Turn{Response: "ok"}}

	w := postChat(t, chatMux(bot), `{
		"message": "and projects?",
		"history": [
			{"role": "user", "content": "skills?"},
			{"role": "assistant", "content": "Go."}
		]
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, bot.calls)
}

func TestChatMissingMessage(t *testing.T) {
	bot := &mockProcessor{}

	for _, body := range []string{`{}`, `{"message":"   "}`} {
		w := postChat(t, chatMux(bot), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
	assert.Zero(t, bot.calls, "processor invoked for invalid requests")
}

func TestChatInvalidJSON(t *testing.T) {
	w := postChat(t, chatMux(&mockProcessor{}), `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatTurnFailureReturnsGenericApology(t *testing.T) {
	bot := &mockProcessor{err: errors.New("googleai: quota exceeded for project 12345")}

	w := postChat(t, chatMux(bot), `{"message":"hello"}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, genericApology, resp.Message)
	assert.NotContains(t, w.Body.String(), "quota exceeded", "provider error leaked to client")
}

func TestChatNilProcessorNotRegistered(t *testing.T) {
	w := postChat(t, chatMux(nil), `{"message":"hello"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	chatMux(&mockProcessor{}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
