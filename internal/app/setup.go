package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folioai/folio/db"
	"github.com/folioai/folio/internal/config"
	"github.com/folioai/folio/internal/graph"
	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/llm"
	"github.com/folioai/folio/internal/log"
	"github.com/folioai/folio/internal/rag"
	"github.com/folioai/folio/internal/respond"
	"github.com/folioai/folio/internal/router"
	"github.com/folioai/folio/internal/tools"
)

// Setup builds the application from configuration: it connects the
// database pool, runs migrations, initializes the model client, and
// wires the turn graph. Call Close on the returned App to release
// resources. On error everything already initialized is cleaned up.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := providePool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	client, err := llm.Init(ctx, cfg, llm.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("initializing model client: %w", err)
	}
	a.LLM = client

	a.Knowledge = knowledge.New(
		knowledge.NewPGQuerier(pool),
		client.Embedder(),
		knowledge.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
		logger,
	)
	a.Indexer = rag.NewIndexer(a.Knowledge, nil, logger)

	bot, err := provideBot(cfg, client, a.Knowledge, logger)
	if err != nil {
		return nil, err
	}
	a.Bot = bot

	a.ctx, a.cancel = context.WithCancel(ctx)

	logger.Info("application ready",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"retrieval_k", cfg.RetrievalK,
	)
	return a, nil
}

func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return pool, nil
}

// provideBot wires the four turn components into the graph.
func provideBot(cfg *config.Config, client *llm.Client, store *knowledge.Store, logger log.Logger) (*graph.Bot, error) {
	classifier := router.New(router.LLMDecide(client, cfg.RouterTemperature), logger)
	retriever := rag.NewRetriever(store, cfg.RetrievalK, logger)
	executor := tools.NewExecutor(logger, provideTools(cfg, logger)...)
	synthesizer := respond.New(client, cfg.OwnerName, cfg.ResponseTemperature, logger)

	timeout := time.Duration(cfg.TurnTimeoutSeconds) * time.Second
	return graph.NewBot(classifier, retriever, executor, synthesizer, timeout, logger)
}

// provideTools builds the fixed tool set. The contact tool delivers
// over SMTP only when a host is configured.
func provideTools(cfg *config.Config, logger log.Logger) []tools.Tool {
	var mailer tools.Mailer
	if cfg.SMTPHost != "" {
		mailer = tools.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.OwnerEmail)
	}
	return []tools.Tool{
		tools.NewContact(mailer, cfg.OwnerEmail, logger),
		tools.NewAvailability(cfg.AvailabilitySlots),
	}
}
