// Package cmd implements the folio command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folioai/folio/internal/config"
	"github.com/folioai/folio/internal/log"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio - portfolio assistant chatbot",
	Long: `folio answers questions about a portfolio using retrieval-augmented
generation over ingested documents, runs contact and availability tools
on a visitor's behalf, and serves the whole thing over HTTP.

Common workflows:

  folio ingest ./docs        load portfolio documents into the store
  folio ask "your skills?"   answer a single question from the terminal
  folio serve                start the HTTP API`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to folio.yaml")
}

// loadConfig loads and validates configuration, plus a logger built
// from it.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	return cfg, logger, nil
}
