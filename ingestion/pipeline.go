// Package ingestion runs the batch pipeline that turns the ticker universe
// into vector index entries: fetch facts, embed the business summary, upsert,
// checkpoint the outcome. Symbols are independent; one failure never aborts
// the batch.
package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/stockscope/ai"
	"github.com/poiesic/stockscope/checkpoint"
	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/index"
	"github.com/poiesic/stockscope/marketdata"
	"github.com/poiesic/stockscope/universe"
)

// Status classifies one symbol's run outcome.
type Status string

const (
	// StatusSuccess means the symbol's entry reached the index and the
	// success log.
	StatusSuccess Status = "success"
	// StatusFailure means a pipeline stage failed; recorded in the failure
	// log.
	StatusFailure Status = "failure"
	// StatusSkipped means a previous run already ingested the symbol. Never
	// logged.
	StatusSkipped Status = "skipped"
)

// Outcome reports what happened to one symbol.
type Outcome struct {
	Symbol string
	Status Status
	Err    error
}

// Pipeline coordinates one ingestion run over the ticker universe.
type Pipeline struct {
	source      universe.Source
	fetcher     marketdata.Fetcher
	embedder    ai.Embedder
	index       index.Index
	checkpoints *checkpoint.Store

	pool        *ants.Pool
	namespace   string
	callTimeout time.Duration
	observer    func(Outcome)
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size. Default is 4, minimum 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithNamespace sets the index namespace written to.
// Default is index.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		p.namespace = namespace
		return nil
	}
}

// WithCallTimeout bounds each external call (fetch, embed, upsert).
// Default is 30s.
func WithCallTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.callTimeout = timeout
		return nil
	}
}

// WithObserver registers a callback invoked once per outcome, including
// skips. Used to feed metrics.
func WithObserver(fn func(Outcome)) Option {
	return func(p *Pipeline) error {
		p.observer = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	source universe.Source,
	fetcher marketdata.Fetcher,
	embedder ai.Embedder,
	idx index.Index,
	checkpoints *checkpoint.Store,
	opts ...Option,
) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRequired
	}

	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:      source,
		fetcher:     fetcher,
		embedder:    embedder,
		index:       idx,
		checkpoints: checkpoints,
		pool:        pool,
		namespace:   index.DefaultNamespace,
		callTimeout: 30 * time.Second,
		logger:      slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Run ingests the full universe batch and returns one outcome per symbol, in
// universe order. Only universe enumeration failure is returned as an error;
// per-symbol failures land in the outcomes.
//
// The success set is snapshotted once at the start of the run. Sources
// de-duplicate their batches, so a symbol succeeding mid-run cannot reappear
// later in the same batch.
func (p *Pipeline) Run(ctx context.Context) ([]Outcome, error) {
	tickers, err := p.source.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	succeeded := p.checkpoints.Successes()
	outcomes := make([]Outcome, len(tickers))

	var wg sync.WaitGroup
	for i, ticker := range tickers {
		symbol := ticker.Symbol

		if _, done := succeeded[symbol]; done {
			outcomes[i] = Outcome{Symbol: symbol, Status: StatusSkipped}
			p.observe(outcomes[i])
			continue
		}

		slot := i
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			outcomes[slot] = p.ingestOne(ctx, symbol)
			p.observe(outcomes[slot])
		})
		if submitErr != nil {
			wg.Done()
			outcomes[i] = Outcome{Symbol: symbol, Status: StatusFailure, Err: submitErr}
			p.observe(outcomes[i])
		}
	}
	wg.Wait()

	p.logger.Info("ingestion run complete", "total", len(outcomes))
	return outcomes, nil
}

// ingestOne runs the full per-symbol sequence and records the outcome in the
// checkpoint log. A checkpoint append failure is logged but does not change
// the outcome; the next run simply retries the symbol.
func (p *Pipeline) ingestOne(ctx context.Context, symbol string) Outcome {
	err := p.processSymbol(ctx, symbol)
	if err != nil {
		p.logger.Warn("symbol ingestion failed", "symbol", symbol, "error", err)
		if cpErr := p.checkpoints.RecordFailure(symbol); cpErr != nil {
			p.logger.Error("could not record failure", "symbol", symbol, "error", cpErr)
		}
		return Outcome{Symbol: symbol, Status: StatusFailure, Err: err}
	}

	if cpErr := p.checkpoints.RecordSuccess(symbol); cpErr != nil {
		p.logger.Error("could not record success", "symbol", symbol, "error", cpErr)
	}
	p.logger.Debug("symbol ingested", "symbol", symbol)
	return Outcome{Symbol: symbol, Status: StatusSuccess}
}

func (p *Pipeline) processSymbol(ctx context.Context, symbol string) error {
	facts, err := withTimeoutCall(ctx, p.callTimeout, func(ctx context.Context) (core.StockFacts, error) {
		return p.fetcher.Fetch(ctx, symbol)
	})
	if err != nil {
		return err
	}
	if facts.BusinessSummary == "" {
		return ErrNoSummary
	}

	vector, err := withTimeoutCall(ctx, p.callTimeout, func(ctx context.Context) ([]float32, error) {
		return p.embedder.EmbedText(ctx, facts.BusinessSummary)
	})
	if err != nil {
		return err
	}

	entry := index.Entry{
		ID:       symbol,
		Vector:   vector,
		Metadata: facts.Metadata(),
		Text:     facts.BusinessSummary,
	}
	_, err = withTimeoutCall(ctx, p.callTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.index.Upsert(ctx, p.namespace, entry)
	})
	return err
}

func withTimeoutCall[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func (p *Pipeline) observe(outcome Outcome) {
	if p.observer != nil {
		p.observer(outcome)
	}
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
