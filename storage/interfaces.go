package storage

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// PassageRepository provides operations for managing persisted passages and
// their embedding vectors.
// Implementations must be thread-safe and support concurrent access.
type PassageRepository interface {
	// AddPassages adds or replaces passages in storage.
	// Passages are keyed by Key; re-adding a key overwrites the record.
	// Sets InsertedAt and the content-based Id if not already set.
	AddPassages(ctx context.Context, records ...*core.PassageRecord) ([]*core.PassageRecord, error)

	// GetPassage retrieves a single passage by key.
	// Returns ErrNotFound if the passage doesn't exist.
	GetPassage(ctx context.Context, key string) (*core.PassageRecord, error)

	// CountPassages returns the number of stored passages.
	CountPassages(ctx context.Context) (int, error)

	// FindSimilar finds passages similar to the given vector.
	// Returns passages with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first). A non-empty
	// space restricts matches to that space.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, space string) ([]*core.VectorMatch, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// QueryLogRepository persists the semantic query log between runs.
// Implementations must be thread-safe and support concurrent access.
type QueryLogRepository interface {
	// SaveEntries atomically replaces the persisted log with the given
	// entries, keyed by normalized query string.
	SaveEntries(ctx context.Context, entries map[string]*core.QueryLogEntry) error

	// LoadEntries loads all persisted log entries.
	// Returns an empty map when nothing has been saved yet.
	LoadEntries(ctx context.Context) (map[string]*core.QueryLogEntry, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
