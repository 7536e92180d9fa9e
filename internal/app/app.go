// Package app assembles the application: configuration, database pool,
// model client, chunk store, tools, and the turn graph. Every component
// is constructed explicitly and passed down; there are no package-level
// singletons.
package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folioai/folio/internal/config"
	"github.com/folioai/folio/internal/graph"
	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/llm"
	"github.com/folioai/folio/internal/log"
	"github.com/folioai/folio/internal/rag"
)

// App is the assembled application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Pool      *pgxpool.Pool
	LLM       *llm.Client
	Knowledge *knowledge.Store
	Indexer   *rag.Indexer
	Bot       *graph.Bot

	ctx    context.Context
	cancel context.CancelFunc
}

// Close releases everything Setup acquired. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Pool != nil {
		a.Pool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}
	return nil
}
