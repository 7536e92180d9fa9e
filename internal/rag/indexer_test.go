package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/folioai/folio/internal/knowledge"
)

// mockIndexStore implements IndexStore for testing.
type mockIndexStore struct {
	addErr   error
	clearErr error

	docs       []knowledge.Document
	addCalls   int
	clearCalls int
}

func (m *mockIndexStore) AddDocuments(ctx context.Context, docs []knowledge.Document, chunk bool) (int, error) {
	m.addCalls++
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.docs = append(m.docs, docs...)
	return len(docs), nil
}

func (m *mockIndexStore) Clear(ctx context.Context) error {
	m.clearCalls++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.docs = nil
	return nil
}

func (m *mockIndexStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.docs)), nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const portfolioMarkdown = `Welcome to my portfolio.

## Skills

Go, PostgreSQL, distributed systems.

## Projects

A portfolio chatbot with retrieval.
`

func TestIngestFile(t *testing.T) {
	store := &mockIndexStore{}
	idx := NewIndexer(store, nil, nil)
	path := writeFile(t, t.TempDir(), "portfolio.md", portfolioMarkdown)

	count, err := idx.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile() error: %v", err)
	}
	if count != 3 {
		t.Errorf("IngestFile() = %d chunks, want 3 sections", count)
	}
	if store.addCalls != 1 {
		t.Errorf("AddDocuments called %d times, want 1", store.addCalls)
	}
}

func TestIngestFileUnsupportedType(t *testing.T) {
	idx := NewIndexer(&mockIndexStore{}, nil, nil)
	path := writeFile(t, t.TempDir(), "binary.pdf", "not text")

	if _, err := idx.IngestFile(context.Background(), path); err == nil {
		t.Error("IngestFile() accepted unsupported extension")
	}
}

func TestIngestFileEmpty(t *testing.T) {
	store := &mockIndexStore{}
	idx := NewIndexer(store, nil, nil)
	path := writeFile(t, t.TempDir(), "empty.md", "   \n")

	count, err := idx.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile() error: %v", err)
	}
	if count != 0 || store.addCalls != 0 {
		t.Errorf("empty file: count=%d addCalls=%d, want 0/0", count, store.addCalls)
	}
}

func TestIngestFileStoreError(t *testing.T) {
	sentinel := errors.New("db down")
	idx := NewIndexer(&mockIndexStore{addErr: sentinel}, nil, nil)
	path := writeFile(t, t.TempDir(), "portfolio.md", portfolioMarkdown)

	_, err := idx.IngestFile(context.Background(), path)
	if !errors.Is(err, sentinel) {
		t.Errorf("IngestFile() = %v, want wrapped %v", err, sentinel)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "portfolio.md", portfolioMarkdown)
	writeFile(t, dir, "notes.txt", "Some plain notes.")
	writeFile(t, dir, "photo.png", "binary")

	store := &mockIndexStore{}
	idx := NewIndexer(store, nil, nil)

	result, err := idx.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory() error: %v", err)
	}
	if result.FilesAdded != 2 {
		t.Errorf("FilesAdded = %d, want 2", result.FilesAdded)
	}
	if result.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1 for unsupported type", result.FilesSkipped)
	}
	if result.FilesFailed != 0 {
		t.Errorf("FilesFailed = %d, want 0", result.FilesFailed)
	}
	if result.ChunksStored != 4 {
		t.Errorf("ChunksStored = %d, want 4", result.ChunksStored)
	}
}

func TestIngestDirectoryContinuesOnStoreError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "## One\ntext")
	writeFile(t, dir, "b.md", "## Two\ntext")

	store := &mockIndexStore{addErr: errors.New("db down")}
	idx := NewIndexer(store, nil, nil)

	result, err := idx.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory() error: %v", err)
	}
	if result.FilesFailed != 2 || result.FilesAdded != 0 {
		t.Errorf("failed=%d added=%d, want 2 failed, 0 added", result.FilesFailed, result.FilesAdded)
	}
}

func TestIngestDirectoryCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.rst", "restructured text")
	writeFile(t, dir, "doc.md", "markdown")

	store := &mockIndexStore{}
	idx := NewIndexer(store, []string{".rst"}, nil)

	result, err := idx.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesAdded != 1 || result.FilesSkipped != 1 {
		t.Errorf("added=%d skipped=%d, want 1/1", result.FilesAdded, result.FilesSkipped)
	}
}

func TestSplitSections(t *testing.T) {
	docs := SplitSections(portfolioMarkdown, "portfolio.md")
	if len(docs) != 3 {
		t.Fatalf("SplitSections() = %d docs, want 3", len(docs))
	}

	if docs[0].ID != "portfolio_0" {
		t.Errorf("first id = %q, want portfolio_0", docs[0].ID)
	}
	if !strings.Contains(docs[0].Content, "# Introduction") {
		t.Errorf("preamble missing Introduction header: %q", docs[0].Content)
	}
	if docs[1].Metadata["section"] != "Skills" {
		t.Errorf("section metadata = %q, want Skills", docs[1].Metadata["section"])
	}
	if docs[1].Metadata[knowledge.MetaSource] != "portfolio.md" {
		t.Errorf("source metadata = %q", docs[1].Metadata[knowledge.MetaSource])
	}
	if !strings.Contains(docs[2].Content, "# Projects") {
		t.Errorf("section header not kept as title: %q", docs[2].Content)
	}
}

func TestSplitSectionsNoHeaders(t *testing.T) {
	docs := SplitSections("just one block of text", "notes.txt")
	if len(docs) != 1 {
		t.Fatalf("SplitSections() = %d docs, want 1", len(docs))
	}
	if docs[0].ID != "notes_0" {
		t.Errorf("id = %q, want notes_0", docs[0].ID)
	}
}

func TestSplitSectionsDeterministicIDs(t *testing.T) {
	a := SplitSections(portfolioMarkdown, "portfolio.md")
	b := SplitSections(portfolioMarkdown, "portfolio.md")
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("ids differ between runs: %q vs %q", a[i].ID, b[i].ID)
		}
	}
}

func TestSplitSectionsEmpty(t *testing.T) {
	if docs := SplitSections("  \n ", "x.md"); docs != nil {
		t.Errorf("SplitSections(blank) = %v, want nil", docs)
	}
}

func TestDocBase(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"portfolio.md", "portfolio"},
		{"My Resume.txt", "my-resume"},
		{"2024_notes.md", "2024-notes"},
		{".md", "doc"},
	}
	for _, tt := range tests {
		if got := docBase(tt.source); got != tt.want {
			t.Errorf("docBase(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
