package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioai/folio/internal/app"
)

var ingestClear bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Load portfolio documents into the knowledge base",
	Long: `Ingest reads markdown and text files from a file or directory,
splits them into chunks, embeds each chunk, and stores the result
in the vector store used to answer portfolio questions.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "remove existing chunks before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if ingestClear {
		if err := a.Indexer.Clear(ctx); err != nil {
			return fmt.Errorf("clearing knowledge base: %w", err)
		}
		fmt.Println("Knowledge base cleared.")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if info.IsDir() {
		result, err := a.Indexer.IngestDirectory(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting directory: %w", err)
		}
		fmt.Printf("Ingested %d file(s), skipped %d, failed %d.\n",
			result.FilesAdded, result.FilesSkipped, result.FilesFailed)
		fmt.Printf("Stored %d chunk(s) in %s.\n", result.ChunksStored, result.Duration.Round(time.Millisecond))
		return nil
	}

	chunks, err := a.Indexer.IngestFile(ctx, path)
	if err != nil {
		return fmt.Errorf("ingesting file: %w", err)
	}
	fmt.Printf("Stored %d chunk(s) from %s.\n", chunks, path)
	return nil
}
