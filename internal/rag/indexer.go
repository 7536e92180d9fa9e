package rag

// indexer.go implements portfolio document ingestion.
//
// Provides functionality to:
//   - Ingest a single file or a directory tree into the chunk store
//   - Split markdown content into per-section documents
//   - Derive stable document IDs from file paths

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/log"
)

// IndexStore is the write side of the chunk store needed by the
// Indexer. *knowledge.Store satisfies this.
type IndexStore interface {
	AddDocuments(ctx context.Context, docs []knowledge.Document, chunk bool) (int, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// defaultSupportedExtensions are the file types we ingest.
var defaultSupportedExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// IndexResult summarizes one ingestion run.
type IndexResult struct {
	FilesAdded   int
	FilesSkipped int
	FilesFailed  int
	ChunksStored int
	Duration     time.Duration
}

// Indexer loads portfolio documents from disk into the chunk store.
type Indexer struct {
	store               IndexStore
	supportedExtensions map[string]bool
	logger              log.Logger
}

// NewIndexer creates an Indexer. extensions overrides the supported
// file types when non-empty. logger may be nil.
func NewIndexer(store IndexStore, extensions []string, logger log.Logger) *Indexer {
	extMap := make(map[string]bool, len(defaultSupportedExtensions))
	if len(extensions) > 0 {
		for _, ext := range extensions {
			extMap[strings.ToLower(ext)] = true
		}
	} else {
		for k, v := range defaultSupportedExtensions {
			extMap[k] = v
		}
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{store: store, supportedExtensions: extMap, logger: logger}
}

// IngestFile splits one file into section documents and stores them.
// Returns the number of chunks written.
func (idx *Indexer) IngestFile(ctx context.Context, filePath string) (int, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return 0, fmt.Errorf("resolving %s: %w", filePath, err)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	if !idx.supportedExtensions[ext] {
		return 0, fmt.Errorf("unsupported file type: %s", ext)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", absPath, err)
	}

	docs := SplitSections(string(content), filepath.Base(absPath))
	if len(docs) == 0 {
		idx.logger.Warn("file has no ingestible content", "path", absPath)
		return 0, nil
	}

	count, err := idx.store.AddDocuments(ctx, docs, true)
	if err != nil {
		return 0, fmt.Errorf("storing %s: %w", absPath, err)
	}

	idx.logger.Info("file ingested", "path", absPath, "sections", len(docs), "chunks", count)
	return count, nil
}

// IngestDirectory ingests every supported file under dirPath. Files
// that cannot be read or stored are counted as failures and the walk
// continues. Files are read through an os.Root so symlinks cannot
// escape the tree.
func (idx *Indexer) IngestDirectory(ctx context.Context, dirPath string) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	absDir, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dirPath, err)
	}

	root, err := os.OpenRoot(absDir)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", absDir, err)
	}
	defer func() {
		_ = root.Close()
	}()

	err = filepath.Walk(absDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			result.FilesFailed++
			return nil
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !idx.supportedExtensions[ext] {
			result.FilesSkipped++
			return nil
		}

		relPath, err := filepath.Rel(absDir, path)
		if err != nil {
			result.FilesFailed++
			return nil
		}
		content, err := root.ReadFile(relPath)
		if err != nil {
			result.FilesFailed++
			return nil
		}

		docs := SplitSections(string(content), filepath.Base(path))
		if len(docs) == 0 {
			result.FilesSkipped++
			return nil
		}

		count, err := idx.store.AddDocuments(ctx, docs, true)
		if err != nil {
			idx.logger.Warn("storing file failed", "path", path, "error", err)
			result.FilesFailed++
			return nil
		}

		result.FilesAdded++
		result.ChunksStored += count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", absDir, err)
	}

	result.Duration = time.Since(start)
	idx.logger.Info("directory ingested",
		"path", absDir,
		"added", result.FilesAdded,
		"skipped", result.FilesSkipped,
		"failed", result.FilesFailed,
		"chunks", result.ChunksStored,
	)
	return result, nil
}

// Clear removes every stored chunk. Used by ingestion tooling before a
// full re-ingest.
func (idx *Indexer) Clear(ctx context.Context) error {
	return idx.store.Clear(ctx)
}

// Count returns the number of stored chunks.
func (idx *Indexer) Count(ctx context.Context) (int64, error) {
	return idx.store.Count(ctx)
}

// SplitSections splits markdown content on "## " headers, one document
// per section with the header kept as a title line. Content before the
// first header becomes an "Introduction" section. Files without headers
// yield a single document. Section documents get ids derived from the
// source name and section index so re-ingesting the same file produces
// the same chunk ids.
func SplitSections(content, source string) []knowledge.Document {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	type section struct {
		header string
		body   strings.Builder
	}

	sections := []*section{{header: "Introduction"}}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			sections = append(sections, &section{header: strings.TrimSpace(line[3:])})
			continue
		}
		cur := sections[len(sections)-1]
		cur.body.WriteString(line)
		cur.body.WriteString("\n")
	}

	base := docBase(source)
	var docs []knowledge.Document
	for _, s := range sections {
		body := strings.TrimSpace(s.body.String())
		if body == "" {
			continue
		}
		docs = append(docs, knowledge.Document{
			ID:      fmt.Sprintf("%s_%d", base, len(docs)),
			Content: fmt.Sprintf("# %s\n\n%s", s.header, body),
			Metadata: map[string]string{
				knowledge.MetaSource: source,
				"section":            s.header,
			},
		})
	}
	return docs
}

// docBase derives a stable document id prefix from a file name.
func docBase(source string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" {
		base = "doc"
	}
	return base
}
