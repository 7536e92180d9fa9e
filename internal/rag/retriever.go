// Package rag provides retrieval for the knowledge-grounded route and
// the ingestion pipeline that populates the chunk store.
package rag

import (
	"context"
	"strings"

	"github.com/folioai/folio/internal/knowledge"
	"github.com/folioai/folio/internal/log"
)

// Searcher is the read side of the chunk store. *knowledge.Store
// satisfies this.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]knowledge.Result, error)
}

// Retriever finds the chunks most relevant to a query. Retrieval
// problems degrade to zero results so a turn can always continue to the
// response step.
type Retriever struct {
	searcher Searcher
	defaultK int
	logger   log.Logger
}

// NewRetriever creates a Retriever with the given default top-k. logger
// may be nil.
func NewRetriever(searcher Searcher, defaultK int, logger log.Logger) *Retriever {
	if defaultK <= 0 {
		defaultK = 5
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{searcher: searcher, defaultK: defaultK, logger: logger}
}

// Retrieve returns up to k chunks ordered best match first. k <= 0 uses
// the configured default. An empty query, an empty collection, or a
// store failure all yield an empty result, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []knowledge.Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = r.defaultK
	}

	results, err := r.searcher.SimilaritySearch(ctx, query, k)
	if err != nil {
		r.logger.Warn("retrieval failed, continuing without context", "error", err)
		return nil
	}

	r.logger.Debug("documents retrieved", "count", len(results), "k", k)
	return results
}
