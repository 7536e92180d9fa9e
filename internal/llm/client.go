// Package llm wraps Genkit behind an explicitly constructed client.
//
// Every component that talks to a model receives this client (or a narrow
// interface satisfied by it) via its constructor. There is no package-level
// singleton: tests inject stubs, production injects one client built by Init.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"golang.org/x/time/rate"

	"github.com/folioai/folio/internal/config"
	"github.com/folioai/folio/internal/log"
)

// Request is a single completion request.
type Request struct {
	System      string  // system prompt
	Prompt      string  // user-visible prompt body
	Temperature float32 // sampling temperature for this step
}

// Client is the provider handle shared by the classifier, the synthesizer
// and the knowledge store. Safe for concurrent use.
type Client struct {
	g        *genkit.Genkit
	model    string
	embedder ai.Embedder
	limiter  *rate.Limiter
	retry    RetryConfig
	logger   log.Logger
}

// Options configures Init beyond what config.Config carries.
type Options struct {
	// RateLimiter throttles outbound model calls. Nil installs the default
	// of 10 req/s with a burst of 30.
	RateLimiter *rate.Limiter

	// Retry overrides the transient-error retry policy. Zero value uses
	// DefaultRetryConfig.
	Retry RetryConfig

	Logger log.Logger
}

// Init initializes Genkit with the configured provider and returns a Client.
// Supported providers: gemini (default), ollama, openai. API keys are read
// from the environment by the respective plugin (GEMINI_API_KEY,
// OPENAI_API_KEY); ollama needs no key.
func Init(ctx context.Context, cfg *config.Config, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	var g *genkit.Genkit
	var embedder ai.Embedder

	switch cfg.Provider {
	case config.ProviderOllama:
		plugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama needs explicit registration; there is no auto-discovery.
		plugin.DefineModel(g, ollama.ModelDefinition{Name: cfg.ModelName, Type: "chat"}, nil)
		plugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		embedder = ollama.Embedder(g, cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		embedder = genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}

	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	limiter := opts.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	retryCfg := opts.Retry
	if retryCfg.MaxRetries == 0 {
		retryCfg = DefaultRetryConfig()
	}

	logger.Info("llm client initialized",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel)

	return &Client{
		g:        g,
		model:    providerModelName(cfg),
		embedder: embedder,
		limiter:  limiter,
		retry:    retryCfg,
		logger:   logger,
	}, nil
}

// providerModelName qualifies the model name with its provider prefix the
// way Genkit expects ("googleai/gemini-2.5-flash").
func providerModelName(cfg *config.Config) string {
	switch cfg.Provider {
	case config.ProviderOllama:
		return "ollama/" + cfg.ModelName
	case config.ProviderOpenAI:
		return "openai/" + cfg.ModelName
	default:
		return "googleai/" + cfg.ModelName
	}
}

// Embedder exposes the provider's embedding model for the knowledge store.
func (c *Client) Embedder() ai.Embedder {
	return c.embedder
}

// Generate produces a plain-text completion for req, applying the client's
// rate limit and transient-error retry policy.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := withRetry(ctx, c, func(ctx context.Context) (*ai.ModelResponse, error) {
		return genkit.Generate(ctx, c.g, c.generateOptions(req)...)
	})
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return resp.Text(), nil
}

// GenerateTyped produces a completion constrained to the JSON shape of T.
// The provider's structured-output mode fills in a schema derived from T;
// the decoded value is returned. Callers must still validate the content,
// the schema only guarantees shape.
func GenerateTyped[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	out, err := withRetry(ctx, c, func(ctx context.Context) (*T, error) {
		v, _, err := genkit.GenerateData[T](ctx, c.g, c.generateOptions(req)...)
		return v, err
	})
	if err != nil {
		return zero, fmt.Errorf("generating typed completion: %w", err)
	}
	if out == nil {
		return zero, errors.New("generating typed completion: nil output")
	}
	return *out, nil
}

// generateOptions assembles the per-request Genkit options.
func (c *Client) generateOptions(req Request) []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithModelName(c.model),
		ai.WithPrompt(req.Prompt),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature: float64(req.Temperature),
		}),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	return opts
}
