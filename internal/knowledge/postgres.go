package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGQuerier implements Querier over a pgx connection pool and the chunks
// table created by db/migrations. All statements are parameterized.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier wraps pool. The pool's lifecycle belongs to the caller.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

// UpsertChunks writes rows in a single batch, replacing rows with the same id.
func (q *PGQuerier) UpsertChunks(ctx context.Context, rows []ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO chunks (id, content, embedding, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata,
				created_at = EXCLUDED.created_at`,
			row.ID, row.Content, row.Embedding, row.Metadata, row.CreatedAt)
	}

	results := q.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting chunk %q: %w", rows[i].ID, err)
		}
	}
	return nil
}

// SearchChunks runs a cosine-distance nearest-neighbor query.
func (q *PGQuerier) SearchChunks(ctx context.Context, embedding pgvector.Vector, limit int) ([]SearchRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, content, metadata, created_at, embedding <=> $1 AS distance
		FROM chunks
		ORDER BY distance
		LIMIT $2`,
		embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.CreatedAt, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows: %w", err)
	}
	return out, nil
}

// CountChunks returns the total number of stored chunks.
func (q *PGQuerier) CountChunks(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ClearChunks truncates the collection.
func (q *PGQuerier) ClearChunks(ctx context.Context) error {
	if _, err := q.pool.Exec(ctx, `TRUNCATE chunks`); err != nil {
		return fmt.Errorf("truncating chunks: %w", err)
	}
	return nil
}
