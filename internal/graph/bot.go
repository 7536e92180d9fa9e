package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/log"
	"github.com/folioai/folio/internal/router"
)

// Node names. Exposed so tests can assert on transitions.
const (
	NodeRouter    = "router"
	NodeRetriever = "retriever"
	NodeTool      = "tool_agent"
	NodeResponse  = "response_agent"
)

// Classifier decides the route for a turn. *router.Classifier satisfies
// this.
type Classifier interface {
	Classify(ctx context.Context, query string, history []string) router.Decision
}

// Retriever fetches relevant chunks, degrading to zero results on
// failure. *rag.Retriever satisfies this.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []knowledge.Result
}

// ToolRunner executes a named tool, always returning a textual result.
// *tools.Executor satisfies this.
type ToolRunner interface {
	Execute(ctx context.Context, name, query string, args map[string]string) string
}

// Synthesizer produces the final answer. *respond.Synthesizer satisfies
// this.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, documents []string, toolResult string, history []string) (string, error)
}

// Turn is the outcome of one processed message.
type Turn struct {
	Response string    `json:"response"`
	Messages []Message `json:"messages"`
}

// Bot runs the conversation graph.
type Bot struct {
	graph   *Graph
	timeout time.Duration
	logger  log.Logger
}

// NewBot wires the four components into the turn graph. timeout bounds
// a whole turn; zero disables the bound. logger may be nil.
func NewBot(classifier Classifier, retriever Retriever, toolRunner ToolRunner, synthesizer Synthesizer, timeout time.Duration, logger log.Logger) (*Bot, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	g, err := NewBuilder().
		AddNode(NodeRouter, routerNode(classifier)).
		AddNode(NodeRetriever, retrieverNode(retriever)).
		AddNode(NodeTool, toolNode(toolRunner)).
		AddNode(NodeResponse, responseNode(synthesizer)).
		SetEntry(NodeRouter).
		AddConditionalEdge(NodeRouter, routeBranch).
		AddEdge(NodeRetriever, NodeResponse).
		AddEdge(NodeTool, NodeResponse).
		AddEdge(NodeResponse, End).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("building turn graph: %w", err)
	}

	return &Bot{graph: g, timeout: timeout, logger: logger}, nil
}

// ProcessTurn appends userMessage to the prior history and runs the
// graph. On success the returned Turn carries the final response and
// the full updated history, exactly one assistant message longer than
// the input. Only a response-step failure (or the turn timeout) is
// returned as an error.
func (b *Bot) ProcessTurn(ctx context.Context, userMessage string, prior []Message) (Turn, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	messages := make([]Message, 0, len(prior)+1)
	messages = append(messages, prior...)
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})

	start := time.Now()
	final, err := b.graph.Run(ctx, State{Messages: messages})
	if err != nil {
		b.logger.Error("turn failed", "error", err, "elapsed", time.Since(start))
		return Turn{}, err
	}

	b.logger.Info("turn completed",
		"route", final.Route,
		"documents", len(final.Documents),
		"elapsed", time.Since(start),
	)
	return Turn{Response: final.FinalResponse, Messages: final.Messages}, nil
}

// routeBranch maps the classified route to the next node. Anything but
// an explicit rag or tool route goes straight to the response step.
func routeBranch(s State) string {
	switch s.Route {
	case router.RouteRAG:
		return NodeRetriever
	case router.RouteTool:
		return NodeTool
	default:
		return NodeResponse
	}
}

func routerNode(classifier Classifier) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		d := classifier.Classify(ctx, s.LatestUserMessage(), s.HistoryLines())
		return Update{Route: &d.Route, ToolName: &d.ToolName}, nil
	}
}

func retrieverNode(retriever Retriever) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		results := retriever.Retrieve(ctx, s.LatestUserMessage(), 0)
		return Update{Documents: &results}, nil
	}
}

func toolNode(toolRunner ToolRunner) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		result := toolRunner.Execute(ctx, s.ToolName, s.LatestUserMessage(), s.ToolArgs)
		return Update{ToolResult: &result}, nil
	}
}

func responseNode(synthesizer Synthesizer) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		docs := make([]string, 0, len(s.Documents))
		for _, r := range s.Documents {
			docs = append(docs, r.Chunk.Content)
		}
		text, err := synthesizer.Synthesize(ctx, s.LatestUserMessage(), docs, s.ToolResult, s.HistoryLines())
		if err != nil {
			return Update{}, err
		}
		return Update{
			Messages:      []Message{{Role: RoleAssistant, Content: text}},
			FinalResponse: &text,
		}, nil
	}
}
