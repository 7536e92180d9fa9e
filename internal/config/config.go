// Package config loads and validates folio's configuration.
//
// Sources, highest priority first:
//  1. Environment variables (FOLIO_* prefix, DATABASE_URL)
//  2. Config file (folio.yaml in the working directory or --config path)
//  3. Defaults
//
// Categories:
//   - AI: provider, chat/embedding models, per-step temperatures
//   - RAG: chunk size, chunk overlap, retrieval top-k
//   - Storage: PostgreSQL connection for the pgvector chunk store
//   - Tools: contact mailbox and SMTP settings, availability slots
//   - Server: HTTP listen address, turn timeout
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers accepted in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds the full application configuration.
// Sensitive fields (postgres password, SMTP password) must never be logged.
type Config struct {
	// AI provider and models
	Provider      string `mapstructure:"provider"`       // "gemini" (default), "ollama", "openai"
	ModelName     string `mapstructure:"model_name"`     // chat model, e.g. "gemini-2.5-flash"
	EmbedderModel string `mapstructure:"embedder_model"` // embedding model, e.g. "gemini-embedding-001"
	OllamaHost    string `mapstructure:"ollama_host"`

	// Per-step temperatures. Routing wants determinism, synthesis wants
	// natural phrasing, hence the asymmetric defaults.
	RouterTemperature   float32 `mapstructure:"router_temperature"`
	ResponseTemperature float32 `mapstructure:"response_temperature"`

	// RAG tuning
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	RetrievalK   int `mapstructure:"retrieval_k"`

	// Portfolio owner the bot represents
	OwnerName  string `mapstructure:"owner_name"`
	OwnerEmail string `mapstructure:"owner_email"`

	// PostgreSQL (pgvector chunk store)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// HTTP server
	ServerAddr         string `mapstructure:"server_addr"`
	TurnTimeoutSeconds int    `mapstructure:"turn_timeout_seconds"`

	// SMTP for the contact tool. Empty host disables real delivery;
	// the tool then logs the message instead of sending it.
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`

	// Availability slots the calendar tool answers with, "HH:MM" each.
	AvailabilitySlots []string `mapstructure:"availability_slots"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// setDefaults registers every default on the given viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", "gemini-embedding-001")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("router_temperature", 0.0)
	v.SetDefault("response_temperature", 0.7)

	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("retrieval_k", 5)

	v.SetDefault("owner_name", "Portfolio Owner")
	v.SetDefault("owner_email", "")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "folio")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "folio")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("server_addr", "127.0.0.1:8004")
	v.SetDefault("turn_timeout_seconds", 60)

	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")

	v.SetDefault("availability_slots", []string{"10:00", "14:00", "16:00"})

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Load reads configuration from defaults, an optional config file, and the
// environment, then validates the result.
//
// path may be empty, in which case folio.yaml is looked up in the working
// directory and silently skipped when absent. A missing explicit path is an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	} else {
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
