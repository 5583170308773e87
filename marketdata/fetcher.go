// Package marketdata defines the per-symbol fact fetcher used by ingestion.
package marketdata

import (
	"context"
	"errors"

	"github.com/poiesic/stockscope/core"
)

// ErrNoData indicates the provider had no record for a symbol. Treated as a
// per-symbol failure, never fatal to a batch.
var ErrNoData = errors.New("no market data for symbol")

// Fetcher retrieves the facts for one symbol. Implementations must be safe
// for concurrent use by worker-pool tasks.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (core.StockFacts, error)
}
