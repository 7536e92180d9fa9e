// Package respond generates the final user-facing answer for a turn.
// Every route converges here: retrieved documents and tool results, when
// present, are rendered into a single prompt alongside the query and the
// prior conversation.
package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/folioai/folio/internal/llm"
	"github.com/folioai/folio/internal/log"
)

// Markers used in the prompt when a branch contributed nothing. The
// system prompt tells the model how to handle each.
const (
	noContextMarker = "No relevant documents were retrieved."
	noToolMarker    = "No tool was used."
)

// Completer produces freeform text from a prompt. *llm.Client satisfies
// this.
type Completer interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Synthesizer builds the response prompt and runs it through the model.
type Synthesizer struct {
	completer   Completer
	system      string
	temperature float32
	logger      log.Logger
}

// New creates a Synthesizer speaking on behalf of ownerName. logger may
// be nil.
func New(completer Completer, ownerName string, temperature float32, logger log.Logger) *Synthesizer {
	if ownerName == "" {
		ownerName = "the portfolio owner"
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Synthesizer{
		completer:   completer,
		system:      fmt.Sprintf(responseSystemPrompt, ownerName, ownerName, ownerName),
		temperature: temperature,
		logger:      logger,
	}
}

// Synthesize produces the assistant's reply to query. documents are the
// retrieved chunk contents in best-match-first order, toolResult is the
// textual output of the tool branch, and history holds prior turns
// formatted "role: text". This is the one step whose failure ends the
// turn, so the error is returned rather than degraded.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, documents []string, toolResult string, history []string) (string, error) {
	prompt := fmt.Sprintf(responseUserPrompt,
		query,
		renderDocuments(documents),
		renderToolResult(toolResult),
		renderHistory(history),
	)

	response, err := s.completer.Generate(ctx, llm.Request{
		System:      s.system,
		Prompt:      prompt,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("synthesizing response: %w", err)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	s.logger.Debug("response synthesized", "docs", len(documents), "tool_used", toolResult != "")
	return response, nil
}

func renderDocuments(documents []string) string {
	parts := make([]string, 0, len(documents))
	for _, doc := range documents {
		if doc = strings.TrimSpace(doc); doc != "" {
			parts = append(parts, doc)
		}
	}
	if len(parts) == 0 {
		return noContextMarker
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func renderToolResult(toolResult string) string {
	if strings.TrimSpace(toolResult) == "" {
		return noToolMarker
	}
	return toolResult
}

func renderHistory(history []string) string {
	if len(history) == 0 {
		return "(none)"
	}
	return strings.Join(history, "\n")
}
