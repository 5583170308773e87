package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/stockscope/ai/mock"
	"github.com/poiesic/stockscope/checkpoint"
	"github.com/poiesic/stockscope/core"
	badgerindex "github.com/poiesic/stockscope/index/badger"
	"github.com/poiesic/stockscope/marketdata"
	"github.com/poiesic/stockscope/universe"
)

type fetcherFunc func(ctx context.Context, symbol string) (core.StockFacts, error)

func (f fetcherFunc) Fetch(ctx context.Context, symbol string) (core.StockFacts, error) {
	return f(ctx, symbol)
}

// countingFetcher records which symbols were fetched and fails the configured
// ones.
type countingFetcher struct {
	mu      sync.Mutex
	fetched map[string]int
	failing map[string]bool
}

func newCountingFetcher(failing ...string) *countingFetcher {
	f := &countingFetcher{
		fetched: make(map[string]int),
		failing: make(map[string]bool),
	}
	for _, sym := range failing {
		f.failing[sym] = true
	}
	return f
}

func (f *countingFetcher) Fetch(ctx context.Context, symbol string) (core.StockFacts, error) {
	f.mu.Lock()
	f.fetched[symbol]++
	failing := f.failing[symbol]
	f.mu.Unlock()

	if failing {
		return core.StockFacts{}, errors.New("provider exploded")
	}
	return core.StockFacts{
		Ticker:          symbol,
		Name:            symbol + " Inc.",
		BusinessSummary: symbol + " does business.",
		Sector:          "Technology",
		MarketCap:       1e9,
		Volume:          core.NoValue(),
		PERatio:         core.NoValue(),
		Price:           core.NoValue(),
	}, nil
}

func (f *countingFetcher) count(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched[symbol]
}

type testEnv struct {
	checkpoints *checkpoint.Store
	index       *badgerindex.Index
	embedder    *mock.MockEmbedder
	dir         string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := checkpoint.Open(
		filepath.Join(dir, "successful_tickers.txt"),
		filepath.Join(dir, "unsuccessful_tickers.txt"),
		nil,
	)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	idx, err := badgerindex.Open("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return &testEnv{
		checkpoints: store,
		index:       idx,
		embedder:    &mock.MockEmbedder{},
		dir:         dir,
	}
}

func (e *testEnv) newPipeline(t *testing.T, source universe.Source, fetcher marketdata.Fetcher, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(source, fetcher, e.embedder, e.index, e.checkpoints, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func countByStatus(outcomes []Outcome) map[Status]int {
	counts := make(map[Status]int)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	env := newTestEnv(t)
	source := universe.NewStaticSource("AAPL")
	fetcher := newCountingFetcher()

	_, err := NewPipeline(nil, fetcher, env.embedder, env.index, env.checkpoints)
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = NewPipeline(source, nil, env.embedder, env.index, env.checkpoints)
	assert.ErrorIs(t, err, ErrFetcherRequired)

	_, err = NewPipeline(source, fetcher, nil, env.index, env.checkpoints)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(source, fetcher, env.embedder, nil, env.checkpoints)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewPipeline(source, fetcher, env.embedder, env.index, nil)
	assert.ErrorIs(t, err, ErrCheckpointRequired)
}

func TestPipeline_FailureIsolation(t *testing.T) {
	symbols := []string{"S0", "S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8", "BAD"}

	for width := 1; width <= 10; width++ {
		t.Run(fmt.Sprintf("width-%d", width), func(t *testing.T) {
			env := newTestEnv(t)
			pipeline := env.newPipeline(t,
				universe.NewStaticSource(symbols...),
				newCountingFetcher("BAD"),
				WithPoolSize(width),
			)

			outcomes, err := pipeline.Run(context.Background())
			require.NoError(t, err)

			counts := countByStatus(outcomes)
			assert.Equal(t, 9, counts[StatusSuccess])
			assert.Equal(t, 1, counts[StatusFailure])

			assert.Contains(t, env.checkpoints.Failures(), "BAD")
			assert.Len(t, env.checkpoints.Successes(), 9)
		})
	}
}

func TestPipeline_OutcomesFollowUniverseOrder(t *testing.T) {
	env := newTestEnv(t)
	pipeline := env.newPipeline(t,
		universe.NewStaticSource("AAPL", "MSFT", "GOOG"),
		newCountingFetcher(),
		WithPoolSize(3),
	)

	outcomes, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "AAPL", outcomes[0].Symbol)
	assert.Equal(t, "MSFT", outcomes[1].Symbol)
	assert.Equal(t, "GOOG", outcomes[2].Symbol)
}

func TestPipeline_SecondRunSkipsSuccesses(t *testing.T) {
	env := newTestEnv(t)
	fetcher := newCountingFetcher()
	source := universe.NewStaticSource("AAPL", "MSFT")

	pipeline := env.newPipeline(t, source, fetcher)
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	outcomes, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	counts := countByStatus(outcomes)
	assert.Equal(t, 2, counts[StatusSkipped])
	assert.Equal(t, 1, fetcher.count("AAPL"))
	assert.Equal(t, 1, fetcher.count("MSFT"))
}

func TestPipeline_FailedSymbolsAreRetried(t *testing.T) {
	env := newTestEnv(t)
	fetcher := newCountingFetcher("FLAKY")
	source := universe.NewStaticSource("FLAKY")

	pipeline := env.newPipeline(t, source, fetcher)
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	// The provider recovers; the next run processes the symbol again.
	fetcher.mu.Lock()
	fetcher.failing["FLAKY"] = false
	fetcher.mu.Unlock()

	outcomes, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, 2, fetcher.count("FLAKY"))
}

func TestPipeline_RecoveryAfterRestart(t *testing.T) {
	env := newTestEnv(t)
	fetcher := newCountingFetcher()

	// A previous run already ingested A and B.
	require.NoError(t, env.checkpoints.RecordSuccess("A"))
	require.NoError(t, env.checkpoints.RecordSuccess("B"))

	pipeline := env.newPipeline(t, universe.NewStaticSource("A", "B", "C"), fetcher)
	outcomes, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	counts := countByStatus(outcomes)
	assert.Equal(t, 2, counts[StatusSkipped])
	assert.Equal(t, 1, counts[StatusSuccess])
	assert.Equal(t, 0, fetcher.count("A"))
	assert.Equal(t, 0, fetcher.count("B"))
	assert.Equal(t, 1, fetcher.count("C"))
}

func TestPipeline_MissingSummaryIsFailure(t *testing.T) {
	env := newTestEnv(t)
	fetcher := fetcherFunc(func(ctx context.Context, symbol string) (core.StockFacts, error) {
		return core.StockFacts{Ticker: symbol}, nil
	})

	pipeline := env.newPipeline(t, universe.NewStaticSource("HOLLOW"), fetcher)
	outcomes, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailure, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, ErrNoSummary)
	assert.Contains(t, env.checkpoints.Failures(), "HOLLOW")
}

func TestPipeline_SourceFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	source := sourceFunc(func(ctx context.Context) ([]core.TickerRecord, error) {
		return nil, errors.New("feed down")
	})

	pipeline := env.newPipeline(t, source, newCountingFetcher())
	_, err := pipeline.Run(context.Background())
	assert.Error(t, err)
}

func TestPipeline_ObserverSeesEveryOutcome(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.checkpoints.RecordSuccess("A"))

	var mu sync.Mutex
	seen := make(map[Status]int)
	pipeline := env.newPipeline(t,
		universe.NewStaticSource("A", "B", "BAD"),
		newCountingFetcher("BAD"),
		WithObserver(func(o Outcome) {
			mu.Lock()
			seen[o.Status]++
			mu.Unlock()
		}),
	)

	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[Status]int{StatusSkipped: 1, StatusSuccess: 1, StatusFailure: 1}, seen)
}

type sourceFunc func(ctx context.Context) ([]core.TickerRecord, error)

func (f sourceFunc) Tickers(ctx context.Context) ([]core.TickerRecord, error) {
	return f(ctx)
}
