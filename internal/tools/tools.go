// Package tools holds the closed set of side-effecting capabilities the
// bot can run on a user's behalf, plus the Executor that dispatches to
// them by name.
//
// Execution never fails a turn. Unknown names and tool errors are
// converted into textual results the response step can explain to the
// user.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/folioai/folio/internal/log"
)

// Tool is one named capability. Run receives the raw user query plus
// any structured arguments extracted upstream.
type Tool interface {
	Name() string
	Run(ctx context.Context, query string, args map[string]string) (string, error)
}

// Executor dispatches tool requests to a fixed registry.
type Executor struct {
	registry map[string]Tool
	logger   log.Logger
}

// NewExecutor builds an Executor over the given tools. Later tools with
// a duplicate name replace earlier ones. logger may be nil.
func NewExecutor(logger log.Logger, ts ...Tool) *Executor {
	if logger == nil {
		logger = log.NewNop()
	}
	registry := make(map[string]Tool, len(ts))
	for _, t := range ts {
		registry[t.Name()] = t
	}
	return &Executor{registry: registry, logger: logger}
}

// Names returns the registered tool names, sorted.
func (e *Executor) Names() []string {
	names := make([]string, 0, len(e.registry))
	for name := range e.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool and always returns a textual result. An
// unknown name yields the unknown-tool result and a tool error yields a
// textual description of the failure, so the turn can still produce a
// response.
func (e *Executor) Execute(ctx context.Context, name, query string, args map[string]string) string {
	tool, ok := e.registry[strings.TrimSpace(name)]
	if !ok {
		e.logger.Warn("unknown tool requested", "tool", name)
		return UnknownToolResult(name, e.Names())
	}

	result, err := tool.Run(ctx, query, args)
	if err != nil {
		e.logger.Error("tool failed", "tool", name, "error", err)
		return fmt.Sprintf("The %s tool could not complete the request: %v", name, err)
	}

	e.logger.Info("tool executed", "tool", name)
	return result
}

// UnknownToolResult is the textual result for a tool name that is not
// in the registry.
func UnknownToolResult(name string, available []string) string {
	if len(available) == 0 {
		return fmt.Sprintf("Unknown tool: %s. No tools are available.", name)
	}
	return fmt.Sprintf("Unknown tool: %s. Available tools: %s", name, strings.Join(available, ", "))
}
