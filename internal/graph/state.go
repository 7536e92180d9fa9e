// Package graph orchestrates one conversational turn. A turn flows
// through a small state machine: the router classifies the message, at
// most one of the retriever and tool branches runs, and the response
// step synthesizes the final answer.
package graph

import (
	"strings"

	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/router"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the data flowing through the graph. Each turn owns an
// independent State, so nodes never share mutable state across turns.
type State struct {
	// Conversation history, oldest first. Append-only: nodes add
	// messages, never rewrite them.
	Messages []Message

	// Routing information set by the router node.
	Route    router.RouteType
	ToolName string
	ToolArgs map[string]string

	// Branch outputs. Documents keep their metadata and distance so
	// callers can inspect what grounded the answer.
	ToolResult string
	Documents  []knowledge.Result

	// Final answer, set by the response node.
	FinalResponse string
}

// Update is a partial state change returned by a node. Messages append
// to the history; every other field is last-write-wins, where a nil
// pointer means "untouched" and a non-nil pointer replaces the value
// even when it points at a zero value.
type Update struct {
	Messages []Message

	Route         *router.RouteType
	ToolName      *string
	ToolArgs      *map[string]string
	ToolResult    *string
	Documents     *[]knowledge.Result
	FinalResponse *string
}

// Apply merges an update into a state and returns the result.
func Apply(s State, u Update) State {
	s.Messages = append(s.Messages, u.Messages...)

	if u.Route != nil {
		s.Route = *u.Route
	}
	if u.ToolName != nil {
		s.ToolName = *u.ToolName
	}
	if u.ToolArgs != nil {
		s.ToolArgs = *u.ToolArgs
	}
	if u.ToolResult != nil {
		s.ToolResult = *u.ToolResult
	}
	if u.Documents != nil {
		s.Documents = *u.Documents
	}
	if u.FinalResponse != nil {
		s.FinalResponse = *u.FinalResponse
	}
	return s
}

// LatestUserMessage returns the content of the most recent user message
// in the history, or "" when there is none.
func (s State) LatestUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// HistoryLines renders every message but the latest as "role: content"
// lines for inclusion in prompts.
func (s State) HistoryLines() []string {
	if len(s.Messages) <= 1 {
		return nil
	}
	lines := make([]string, 0, len(s.Messages)-1)
	for _, m := range s.Messages[:len(s.Messages)-1] {
		lines = append(lines, string(m.Role)+": "+strings.TrimSpace(m.Content))
	}
	return lines
}
