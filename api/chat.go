package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/folioai/folio/internal/graph"
	"github.com/folioai/folio/internal/log"
)

// genericApology is returned for any turn-level failure. Provider error
// text never reaches the client.
const genericApology = "I'm unable to generate a response right now. Please try again in a moment."

// TurnProcessor runs one conversational turn. *graph.Bot satisfies
// this.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, userMessage string, prior []graph.Message) (graph.Turn, error)
}

// ChatRequest is the POST /api/chat body. History carries the prior
// turns when the client keeps the conversation going; the server is
// stateless between requests.
type ChatRequest struct {
	Message string          `json:"message"`
	History []graph.Message `json:"history,omitempty"`
}

// ChatResponse is the successful reply: the answer plus the full
// updated history for the client to send back next turn.
type ChatResponse struct {
	Response string          `json:"response"`
	Messages []graph.Message `json:"messages"`
}

// ChatHandler handles the turn endpoint.
type ChatHandler struct {
	bot    TurnProcessor
	logger log.Logger
}

// NewChatHandler creates a chat handler. logger may be nil.
func NewChatHandler(bot TurnProcessor, logger log.Logger) *ChatHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ChatHandler{bot: bot, logger: logger}
}

// RegisterRoutes registers the chat route on mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.bot == nil {
		h.logger.Warn("chat endpoint not registered, no turn processor")
		return
	}
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	turn, err := h.bot.ProcessTurn(r.Context(), req.Message, req.History)
	if err != nil {
		// The one visible failure mode. Log the cause, return the
		// apology without it.
		h.logger.Error("turn failed", "error", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusBadGateway, "turn_failed", genericApology)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: turn.Response,
		Messages: turn.Messages,
	})
}
