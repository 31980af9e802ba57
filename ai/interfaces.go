package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free text from a prompt. Used by the query rewriting
// providers. Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the model's completion for the prompt.
	// Returns an error if the backend is unreachable or the call times out.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the backing provider for logging and cache entries.
	Name() string
}

// CrossEncoder scores query/passage pairs with a pairwise relevance model.
// The score scale is defined by the backing model and is not normalized here;
// callers compare scores only against thresholds tuned for the same model.
// Implementations must be thread-safe for concurrent use.
type CrossEncoder interface {
	// Score returns one relevance score per passage, in input order.
	// Returns an error if the scoring backend is unavailable; callers are
	// expected to fail open and keep their existing ordering.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages the embedding, generation and
// cross-encoding services, ensuring they share configuration appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service used for query rewriting.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// CrossEncoder returns the pairwise relevance scoring service.
	// The returned CrossEncoder is safe for concurrent use.
	CrossEncoder() CrossEncoder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
