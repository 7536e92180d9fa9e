package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/folioai/folio/internal/log"
)

// ChunkRow is the storage representation of a chunk handed to the Querier.
type ChunkRow struct {
	ID        string
	Content   string
	Embedding pgvector.Vector
	Metadata  []byte // JSON object
	CreatedAt time.Time
}

// SearchRow is one nearest-neighbor hit returned by the Querier, ordered by
// ascending Distance.
type SearchRow struct {
	ID        string
	Content   string
	Metadata  []byte
	CreatedAt time.Time
	Distance  float32
}

// Querier is the database surface the store depends on. The interface lives
// with its consumer; the production implementation is PGQuerier over a pgx
// pool, tests supply mocks.
type Querier interface {
	// UpsertChunks inserts rows, replacing existing rows with the same id.
	UpsertChunks(ctx context.Context, rows []ChunkRow) error

	// SearchChunks returns up to limit rows nearest to embedding.
	SearchChunks(ctx context.Context, embedding pgvector.Vector, limit int) ([]SearchRow, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int64, error)

	// ClearChunks removes every chunk in the collection.
	ClearChunks(ctx context.Context) error
}

// Config carries the store's chunking parameters.
type Config struct {
	ChunkSize    int // window size in runes
	ChunkOverlap int // runes shared between consecutive windows
}

// Store is the vector store adapter: it chunks documents, embeds them in one
// batched call, and persists content, embedding and metadata together.
// Search embeds the query and returns the nearest chunks.
//
// Store is safe for concurrent use; it is read-mostly after ingestion.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	cfg      Config
	logger   log.Logger
}

// New creates a Store. logger may be nil.
func New(queries Querier, embedder ai.Embedder, cfg Config, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:  queries,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// chunkID derives the deterministic id for chunk j of document i. Documents
// without an explicit id fall back to their position in the batch, so
// re-ingesting the same batch reproduces the same ids.
func chunkID(base string, i, j int) string {
	if base == "" {
		base = fmt.Sprintf("doc_%d", i)
	}
	return fmt.Sprintf("%s_chunk_%d", base, j)
}

// AddDocuments chunks, embeds and stores docs, returning the number of
// chunks written. With chunk=false each document becomes a single chunk
// regardless of length (chunk index 0, so ids keep the same shape).
//
// Embedding happens in one batched call for the whole ingest; the provider
// returns vectors aligned with the input order.
func (s *Store) AddDocuments(ctx context.Context, docs []Document, chunk bool) (int, error) {
	var ids []string
	var texts []string
	var metadatas []map[string]string

	for i, doc := range docs {
		if doc.Content == "" {
			continue
		}

		var pieces []string
		if chunk {
			pieces = SplitText(doc.Content, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
		} else {
			pieces = []string{doc.Content}
		}

		for j, piece := range pieces {
			meta := make(map[string]string, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[MetaChunkIndex] = strconv.Itoa(j)

			ids = append(ids, chunkID(doc.ID, i, j))
			texts = append(texts, piece)
			metadatas = append(metadatas, meta)
		}
	}

	if len(texts) == 0 {
		return 0, nil
	}

	// Parallel-slice mismatch means the assembly loop above is broken,
	// not a condition to recover from at runtime.
	if len(ids) != len(texts) || len(ids) != len(metadatas) {
		panic(fmt.Sprintf("knowledge: ids/texts/metadata length mismatch: %d/%d/%d",
			len(ids), len(texts), len(metadatas)))
	}

	vectors, err := s.embedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	rows := make([]ChunkRow, len(ids))
	for i := range ids {
		metaJSON, err := json.Marshal(metadatas[i])
		if err != nil {
			return 0, fmt.Errorf("marshaling metadata for chunk %q: %w", ids[i], err)
		}
		rows[i] = ChunkRow{
			ID:        ids[i],
			Content:   texts[i],
			Embedding: pgvector.NewVector(vectors[i]),
			Metadata:  metaJSON,
			CreatedAt: now,
		}
	}

	if err := s.queries.UpsertChunks(ctx, rows); err != nil {
		return 0, fmt.Errorf("storing %d chunks: %w", len(rows), err)
	}

	s.logger.Debug("documents ingested", "documents", len(docs), "chunks", len(rows))
	return len(rows), nil
}

// embedBatch embeds all texts in a single provider call and validates the
// response alignment.
func (s *Store) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	input := make([]*ai.Document, len(texts))
	for i, t := range texts {
		input[i] = ai.DocumentFromText(t, nil)
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding for chunk %d", i)
		}
		vectors[i] = e.Embedding
	}
	return vectors, nil
}

// SimilaritySearch embeds query once and returns the k nearest chunks by
// ascending cosine distance. An empty query or empty collection yields an
// empty result, not an error. The store's contents are never mutated.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if query == "" || k <= 0 {
		return nil, nil
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(query, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}

	rows, err := s.queries.SearchChunks(ctx, pgvector.NewVector(resp.Embeddings[0].Embedding), k)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var meta map[string]string
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			s.logger.Warn("unparsable chunk metadata", "chunk_id", row.ID, "error", err)
			meta = make(map[string]string)
		}
		results = append(results, Result{
			Chunk: Chunk{
				ID:        row.ID,
				Content:   row.Content,
				Metadata:  meta,
				CreatedAt: row.CreatedAt,
			},
			Distance: row.Distance,
		})
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.queries.CountChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Clear removes every chunk. Used by ingestion tooling before a re-ingest;
// conversational turns never call this.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.queries.ClearChunks(ctx); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	s.logger.Info("chunk collection cleared")
	return nil
}
