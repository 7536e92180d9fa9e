package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/router"
)

type mockClassifier struct {
	decision router.Decision
	calls    int
}

func (m *mockClassifier) Classify(ctx context.Context, query string, history []string) router.Decision {
	m.calls++
	return m.decision
}

type mockRetriever struct {
	results []knowledge.Result
	calls   int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) []knowledge.Result {
	m.calls++
	return m.results
}

type mockToolRunner struct {
	result   string
	lastName string
	calls    int
}

func (m *mockToolRunner) Execute(ctx context.Context, name, query string, args map[string]string) string {
	m.calls++
	m.lastName = name
	return m.result
}

type mockSynthesizer struct {
	response string
	err      error
	lastDocs []string
	lastTool string
	calls    int
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, query string, documents []string, toolResult string, history []string) (string, error) {
	m.calls++
	m.lastDocs = documents
	m.lastTool = toolResult
	return m.response, m.err
}

type botFixture struct {
	classifier  *mockClassifier
	retriever   *mockRetriever
	toolRunner  *mockToolRunner
	synthesizer *mockSynthesizer
	bot         *Bot
}

func newBotFixture(t *testing.T, decision router.Decision) *botFixture {
	t.Helper()
	f := &botFixture{
		classifier:  &mockClassifier{decision: decision},
		retriever:   &mockRetriever{},
		toolRunner:  &mockToolRunner{result: "tool ran"},
		synthesizer: &mockSynthesizer{response: "synthesized answer"},
	}
	bot, err := NewBot(f.classifier, f.retriever, f.toolRunner, f.synthesizer, 0, nil)
	if err != nil {
		t.Fatalf("NewBot() error: %v", err)
	}
	f.bot = bot
	return f
}

func TestProcessTurnRAGRoute(t *testing.T) {
	f := newBotFixture(t, router.Decision{Route: router.RouteRAG})
	f.retriever.results = []knowledge.Result{
		{Chunk: knowledge.Chunk{ID: "c1", Content: "Skills: Go, PostgreSQL, distributed systems"}, Distance: 0.1},
	}
	f.synthesizer.response = "I work with Go, PostgreSQL, and distributed systems."

	turn, err := f.bot.ProcessTurn(context.Background(), "What are your skills?", nil)
	if err != nil {
		t.Fatalf("ProcessTurn() error: %v", err)
	}

	if f.retriever.calls != 1 || f.toolRunner.calls != 0 {
		t.Errorf("branch calls = retrieve:%d tool:%d, want 1/0", f.retriever.calls, f.toolRunner.calls)
	}
	if len(f.synthesizer.lastDocs) != 1 || !strings.Contains(f.synthesizer.lastDocs[0], "Skills") {
		t.Errorf("synthesizer docs = %v, want retrieved content", f.synthesizer.lastDocs)
	}
	if !strings.Contains(turn.Response, "Go") {
		t.Errorf("response = %q, want content-grounded answer", turn.Response)
	}
}

func TestProcessTurnDirectRouteEmptyCollection(t *testing.T) {
	f := newBotFixture(t, router.Decision{Route: router.RouteDirect})
	f.synthesizer.response = "Hello! Ask me anything about the portfolio."

	turn, err := f.bot.ProcessTurn(context.Background(), "Hello", nil)
	if err != nil {
		t.Fatalf("ProcessTurn() error: %v", err)
	}

	if f.retriever.calls != 0 || f.toolRunner.calls != 0 {
		t.Errorf("direct route ran a branch: retrieve=%d tool=%d", f.retriever.calls, f.toolRunner.calls)
	}
	if len(f.synthesizer.lastDocs) != 0 {
		t.Errorf("documents = %v, want empty", f.synthesizer.lastDocs)
	}
	if !strings.Contains(turn.Response, "Hello") {
		t.Errorf("response = %q, want greeting-style text", turn.Response)
	}
}

func TestProcessTurnUnknownToolStillAnswers(t *testing.T) {
	f := newBotFixture(t, router.Decision{Route: router.RouteTool, ToolName: "contact"})
	f.toolRunner.result = "Unknown tool: contact. No tools are available."

	turn, err := f.bot.ProcessTurn(context.Background(), "Please email the owner", nil)
	if err != nil {
		t.Fatalf("ProcessTurn() error: %v", err)
	}

	if f.toolRunner.lastName != "contact" {
		t.Errorf("tool name = %q, want contact", f.toolRunner.lastName)
	}
	if !strings.Contains(f.synthesizer.lastTool, "Unknown tool") {
		t.Errorf("synthesizer tool result = %q, want unknown-tool sentinel", f.synthesizer.lastTool)
	}
	if turn.Response == "" {
		t.Error("no response generated for unknown tool")
	}
}

func TestProcessTurnClassifierFallback(t *testing.T) {
	// A failing classifier reports direct; the turn must still complete.
	f := newBotFixture(t, router.Decision{Route: router.RouteDirect, Reasoning: "classification unavailable"})

	turn, err := f.bot.ProcessTurn(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("ProcessTurn() error: %v", err)
	}
	if f.retriever.calls != 0 || f.toolRunner.calls != 0 {
		t.Error("fallback route ran a branch step")
	}
	if turn.Response != "synthesized answer" {
		t.Errorf("response = %q", turn.Response)
	}
}

func TestProcessTurnSingleBranchProperty(t *testing.T) {
	tests := []struct {
		route        router.RouteType
		wantRetrieve int
		wantTool     int
	}{
		{router.RouteRAG, 1, 0},
		{router.RouteTool, 0, 1},
		{router.RouteDirect, 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.route), func(t *testing.T) {
			f := newBotFixture(t, router.Decision{Route: tt.route, ToolName: "contact"})

			if _, err := f.bot.ProcessTurn(context.Background(), "message", nil); err != nil {
				t.Fatal(err)
			}
			if f.retriever.calls != tt.wantRetrieve || f.toolRunner.calls != tt.wantTool {
				t.Errorf("route %s: retrieve=%d tool=%d, want %d/%d",
					tt.route, f.retriever.calls, f.toolRunner.calls, tt.wantRetrieve, tt.wantTool)
			}
			if f.synthesizer.calls != 1 {
				t.Errorf("route %s: synthesize calls = %d, want exactly 1", tt.route, f.synthesizer.calls)
			}
		})
	}
}

func TestProcessTurnAppendsExactlyOneAssistantMessage(t *testing.T) {
	for _, route := range []router.RouteType{router.RouteRAG, router.RouteTool, router.RouteDirect} {
		t.Run(string(route), func(t *testing.T) {
			f := newBotFixture(t, router.Decision{Route: route, ToolName: "contact"})
			prior := []Message{
				{Role: RoleUser, Content: "Hi"},
				{Role: RoleAssistant, Content: "Hello!"},
			}

			turn, err := f.bot.ProcessTurn(context.Background(), "next question", prior)
			if err != nil {
				t.Fatal(err)
			}

			// prior + the user message + exactly one assistant message.
			if len(turn.Messages) != len(prior)+2 {
				t.Fatalf("messages = %d, want %d", len(turn.Messages), len(prior)+2)
			}
			last := turn.Messages[len(turn.Messages)-1]
			if last.Role != RoleAssistant || last.Content != turn.Response {
				t.Errorf("last message = %+v, want assistant copy of response", last)
			}
		})
	}
}

func TestProcessTurnDoesNotMutatePrior(t *testing.T) {
	f := newBotFixture(t, router.Decision{Route: router.RouteDirect})
	prior := []Message{{Role: RoleUser, Content: "Hi"}}

	if _, err := f.bot.ProcessTurn(context.Background(), "q", prior); err != nil {
		t.Fatal(err)
	}
	if len(prior) != 1 {
		t.Errorf("prior history mutated: %v", prior)
	}
}

func TestProcessTurnSynthesisFailure(t *testing.T) {
	f := newBotFixture(t, router.Decision{Route: router.RouteDirect})
	sentinel := errors.New("provider down")
	f.synthesizer.err = sentinel
	f.synthesizer.response = ""

	_, err := f.bot.ProcessTurn(context.Background(), "Hello", nil)
	if !errors.Is(err, sentinel) {
		t.Errorf("ProcessTurn() = %v, want wrapped synthesis error", err)
	}
}

func TestProcessTurnTimeout(t *testing.T) {
	classifier := &mockClassifier{decision: router.Decision{Route: router.RouteDirect}}
	slow := &slowSynthesizer{delay: 200 * time.Millisecond}

	bot, err := NewBot(classifier, &mockRetriever{}, &mockToolRunner{}, slow, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = bot.ProcessTurn(context.Background(), "Hello", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ProcessTurn() = %v, want deadline exceeded", err)
	}
}

type slowSynthesizer struct {
	delay time.Duration
}

func (s *slowSynthesizer) Synthesize(ctx context.Context, query string, documents []string, toolResult string, history []string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestProcessTurnPassesHistoryToClassifier(t *testing.T) {
	var gotHistory []string
	classifier := classifierFunc(func(ctx context.Context, query string, history []string) router.Decision {
		gotHistory = history
		return router.Decision{Route: router.RouteDirect}
	})

	bot, err := NewBot(classifier, &mockRetriever{}, &mockToolRunner{}, &mockSynthesizer{response: "ok"}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	prior := []Message{{Role: RoleUser, Content: "Hi"}, {Role: RoleAssistant, Content: "Hello!"}}
	if _, err := bot.ProcessTurn(context.Background(), "q", prior); err != nil {
		t.Fatal(err)
	}
	if len(gotHistory) != 2 || gotHistory[0] != "user: Hi" {
		t.Errorf("classifier history = %v, want formatted prior turns", gotHistory)
	}
}

type classifierFunc func(ctx context.Context, query string, history []string) router.Decision

func (f classifierFunc) Classify(ctx context.Context, query string, history []string) router.Decision {
	return f(ctx, query, history)
}
