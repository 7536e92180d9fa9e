package knowledge

import "time"

// Document is an ingestion input: one source document before chunking.
type Document struct {
	ID       string            // stable base id; empty means positional ("doc_<i>")
	Content  string            // full text
	Metadata map[string]string // source identity, file name, etc.
}

// Chunk is the persisted unit of retrieval. Chunks are immutable after
// creation; the embedding vector stays inside the store and is never
// exposed to callers.
type Chunk struct {
	ID        string            // "<base>_chunk_<j>"
	Content   string            // window of the source document
	Metadata  map[string]string // source metadata plus "chunk" index
	CreatedAt time.Time
}

// Result is a single similarity-search hit. Distance is the cosine distance
// to the query: smaller is closer, results are ordered ascending.
type Result struct {
	Chunk    Chunk
	Distance float32
}

// Metadata keys written by the store during ingestion.
const (
	// MetaChunkIndex holds the zero-based chunk index within its document.
	MetaChunkIndex = "chunk"

	// MetaSource holds the originating document identity.
	MetaSource = "source"
)
