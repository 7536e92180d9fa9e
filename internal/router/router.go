// Package router classifies incoming user messages into one of three
// processing routes: rag (answer from the knowledge base), tool (run a
// named capability), or direct (answer immediately).
//
// Classification is advisory and must never fail a turn. Any problem
// obtaining or validating a decision degrades to the direct route.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/folioai/folio/internal/llm"
	"github.com/folioai/folio/internal/log"
)

// RouteType is the classified processing path for a turn.
type RouteType string

const (
	RouteRAG    RouteType = "rag"
	RouteTool   RouteType = "tool"
	RouteDirect RouteType = "direct"
)

// Valid reports whether t is one of the three known routes.
func (t RouteType) Valid() bool {
	switch t {
	case RouteRAG, RouteTool, RouteDirect:
		return true
	}
	return false
}

// Decision is the structured output of one classification call.
// ToolName is set if and only if Route is RouteTool.
type Decision struct {
	Route     RouteType `json:"route_type"`
	ToolName  string    `json:"tool_name,omitempty"`
	Reasoning string    `json:"reasoning,omitempty"`
}

// Decide obtains a structured routing decision from a language model.
// Injected so classification can be tested without a live provider.
type Decide func(ctx context.Context, system, prompt string) (Decision, error)

// LLMDecide adapts an llm.Client into a Decide using typed generation
// at the given temperature. Routing runs at temperature 0 in production
// so identical queries classify identically.
func LLMDecide(c *llm.Client, temperature float32) Decide {
	return func(ctx context.Context, system, prompt string) (Decision, error) {
		return llm.GenerateTyped[Decision](ctx, c, llm.Request{
			System:      system,
			Prompt:      prompt,
			Temperature: temperature,
		})
	}
}

// Classifier turns the latest user message into a Decision.
type Classifier struct {
	decide Decide
	logger log.Logger
}

// New creates a Classifier. logger may be nil.
func New(decide Decide, logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Classifier{decide: decide, logger: logger}
}

// Classify decides the route for query given the prior conversation
// turns (oldest first, formatted "role: text"). It never returns an
// error: empty queries, model failures, and malformed decisions all
// yield the direct route.
func (c *Classifier) Classify(ctx context.Context, query string, history []string) Decision {
	query = strings.TrimSpace(query)
	if query == "" {
		c.logger.Warn("classify called with empty query, using direct route")
		return Decision{Route: RouteDirect, Reasoning: "empty query"}
	}

	prompt := fmt.Sprintf(routerUserPrompt, query, formatHistory(history))
	decision, err := c.decide(ctx, routerSystemPrompt, prompt)
	if err != nil {
		c.logger.Warn("classification failed, using direct route", "error", err)
		return Decision{Route: RouteDirect, Reasoning: "classification unavailable"}
	}

	return c.normalize(decision)
}

// normalize enforces the decision contract on raw model output.
func (c *Classifier) normalize(d Decision) Decision {
	d.Route = RouteType(strings.ToLower(strings.TrimSpace(string(d.Route))))
	d.ToolName = strings.TrimSpace(d.ToolName)

	if !d.Route.Valid() {
		c.logger.Warn("unknown route from model, using direct route", "route", d.Route)
		return Decision{Route: RouteDirect, Reasoning: d.Reasoning}
	}

	// ToolName is meaningful only on the tool route. A tool route with
	// no name cannot be executed, so it degrades to direct.
	switch d.Route {
	case RouteTool:
		if d.ToolName == "" {
			c.logger.Warn("tool route without tool name, using direct route")
			return Decision{Route: RouteDirect, Reasoning: d.Reasoning}
		}
	default:
		d.ToolName = ""
	}

	c.logger.Debug("route decided", "route", d.Route, "tool", d.ToolName)
	return d
}

func formatHistory(history []string) string {
	if len(history) == 0 {
		return "(none)"
	}
	return strings.Join(history, "\n")
}
