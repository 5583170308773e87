package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Ingestion and retrieval must share one embedding space, so the same Embedder
// configuration serves both pipelines. Implementations must be thread-safe.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, in input order. Returns an error if any generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryExtractor converts a free-text user query into a structured metadata
// filter plus a residual natural-language question, using a completion model
// as the extraction oracle. Implementations must be thread-safe.
type QueryExtractor interface {
	// ExtractQuery issues one extraction request and returns the validated
	// result. Model output is untrusted: an unparsable response, or a filter
	// referencing unknown fields or operators, is an error — never silently
	// downgraded to an empty filter.
	ExtractQuery(ctx context.Context, userQuery string) (ExtractedQuery, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// QueryExtractor returns the filter extraction service.
	QueryExtractor() QueryExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
