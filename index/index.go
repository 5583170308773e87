// Package index defines the vector index abstraction shared by the ingestion
// and retrieval pipelines. The index is treated as an opaque filtered
// nearest-neighbor service; this module makes no atomicity claims beyond one
// upsert call per symbol.
package index

import (
	"context"

	"github.com/poiesic/stockscope/core"
)

// Collection and namespace shared by ingestion and retrieval. Entry identity
// is keyed by ticker symbol, so re-ingesting a symbol overwrites its entry
// rather than duplicating it.
const (
	Collection       = "stocks"
	DefaultNamespace = "stock-descriptions"
)

// Entry is one vector record. The metadata carries the full StockFacts map;
// Text duplicates the business summary for retrieval without a second lookup.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
	Text     string
}

// Match is one query result with its similarity score, highest first.
type Match struct {
	Entry Entry
	Score float32
}

// Index is a filtered nearest-neighbor vector store.
// Implementations must be safe for concurrent use.
type Index interface {
	// Upsert writes entries into the namespace, overwriting entries with the
	// same ID.
	Upsert(ctx context.Context, namespace string, entries ...Entry) error

	// Query returns up to topK entries nearest to the vector, restricted to
	// those matching the filter, in descending similarity order. An empty
	// result is not an error.
	Query(ctx context.Context, namespace string, vector []float32, filter core.Filter, topK int) ([]Match, error)

	// Close releases resources held by the backend.
	Close() error
}
