package ingestion

import "errors"

var (
	// ErrSourceRequired is returned when a universe source is not provided.
	ErrSourceRequired = errors.New("universe source required")

	// ErrFetcherRequired is returned when a market data fetcher is not provided.
	ErrFetcherRequired = errors.New("market data fetcher required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrCheckpointRequired is returned when a checkpoint store is not provided.
	ErrCheckpointRequired = errors.New("checkpoint store required")

	// ErrNoSummary marks a symbol whose provider record has no business
	// summary. There is nothing to embed, so the symbol is a failure.
	ErrNoSummary = errors.New("no business summary for symbol")
)
