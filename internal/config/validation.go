package config

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Validate. Wrapped with fmt.Errorf("%w: ...")
// so callers can match with errors.Is.
var (
	// ErrInvalidProvider indicates an unsupported AI provider.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTemperature indicates a temperature outside [0, 2].
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidChunking indicates inconsistent chunk size/overlap values.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidRetrievalK indicates an out-of-range retrieval top-k.
	ErrInvalidRetrievalK = errors.New("invalid retrieval k")

	// ErrInvalidPostgres indicates an unusable PostgreSQL configuration.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")

	// ErrInvalidServer indicates an unusable HTTP server configuration.
	ErrInvalidServer = errors.New("invalid server configuration")
)

// Maximum retrieval top-k; anything larger is a misconfiguration, not a
// legitimate search.
const maxRetrievalK = 50

// Validate checks the configuration for internal consistency. It is called
// by Load; exported for callers that assemble a Config by hand (tests,
// wiring code).
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name must not be empty", ErrInvalidProvider)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model must not be empty", ErrInvalidProvider)
	}

	for name, t := range map[string]float32{
		"router_temperature":   c.RouterTemperature,
		"response_temperature": c.ResponseTemperature,
	} {
		if t < 0 || t > 2 {
			return fmt.Errorf("%w: %s=%.2f, must be in [0, 2]", ErrInvalidTemperature, name, t)
		}
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size=%d, must be positive", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap=%d, must not be negative", ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap=%d must be smaller than chunk_size=%d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	if c.RetrievalK <= 0 || c.RetrievalK > maxRetrievalK {
		return fmt.Errorf("%w: retrieval_k=%d, must be in [1, %d]", ErrInvalidRetrievalK, c.RetrievalK, maxRetrievalK)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: postgres_host must not be empty", ErrInvalidPostgres)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: postgres_port=%d out of range", ErrInvalidPostgres, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: postgres_dbname must not be empty", ErrInvalidPostgres)
	}

	if c.ServerAddr == "" {
		return fmt.Errorf("%w: server_addr must not be empty", ErrInvalidServer)
	}
	if c.TurnTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: turn_timeout_seconds=%d, must be positive", ErrInvalidServer, c.TurnTimeoutSeconds)
	}

	return nil
}
