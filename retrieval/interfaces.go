package retrieval

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// Document is a knowledge-base passage as handed to a retriever for indexing.
type Document struct {
	ID      string
	Payload core.Payload
}

// VectorStore provides dense similarity retrieval over indexed passages.
// Implementations embed the query text with their configured embedding
// service and return the top candidates by vector similarity.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// Search returns up to limit candidates most similar to the query,
	// ordered by similarity score (highest first). A non-empty space
	// restricts results to that space.
	Search(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error)

	// Close releases resources held by the store client.
	Close() error
}

// LexicalIndex provides lexical (BM25-style) retrieval over indexed passages.
// Implementations must be thread-safe and support concurrent access.
type LexicalIndex interface {
	// Index adds or replaces documents in the index.
	Index(ctx context.Context, docs ...Document) error

	// Retrieve returns up to limit candidates by lexical match score,
	// ordered by score (highest first). A non-empty space restricts
	// results to that space.
	Retrieve(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error)

	// Close closes the index and releases resources.
	Close() error
}
