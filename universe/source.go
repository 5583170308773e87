// Package universe enumerates the ticker symbols eligible for ingestion.
// Sources de-duplicate their output; downstream pipelines rely on each symbol
// appearing at most once per batch.
package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/poiesic/stockscope/core"
)

// DefaultSECURL serves the SEC company tickers JSON. The file is a map of
// arbitrary string indices to {cik_str, ticker, title} objects.
const DefaultSECURL = "https://raw.githubusercontent.com/team-headstart/Financial-Analysis-and-Automation-with-LLMs/main/company_tickers.json"

// Source enumerates the listing universe for one ingestion run.
type Source interface {
	// Tickers returns the de-duplicated symbol batch. An error here is
	// run-fatal; there is nothing to ingest without a universe.
	Tickers(ctx context.Context) ([]core.TickerRecord, error)
}

// SECSource fetches the SEC company tickers JSON over HTTP and caches the raw
// payload to a local file, so later runs work offline.
type SECSource struct {
	url       string
	cachePath string
	client    *http.Client
	logger    *slog.Logger
}

// SECOption configures a SECSource.
type SECOption func(*SECSource)

// WithURL overrides the feed URL.
func WithURL(url string) SECOption {
	return func(s *SECSource) { s.url = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) SECOption {
	return func(s *SECSource) { s.client = client }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) SECOption {
	return func(s *SECSource) { s.logger = logger.With("component", "universe") }
}

// NewSECSource creates a source reading from the SEC feed, caching the raw
// payload at cachePath. An empty cachePath disables caching.
func NewSECSource(cachePath string, opts ...SECOption) *SECSource {
	s := &SECSource{
		url:       DefaultSECURL,
		cachePath: cachePath,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    slog.Default().With("component", "universe"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// secRecord is one entry of the company tickers file.
type secRecord struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// Tickers returns every distinct symbol in the feed. The cache file is read
// first; on a cache miss the feed is fetched and the raw payload written back.
func (s *SECSource) Tickers(ctx context.Context) ([]core.TickerRecord, error) {
	data, fromCache, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var records map[string]secRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding company tickers: %w", err)
	}

	symbols := make([]string, 0, len(records))
	for _, rec := range records {
		symbols = append(symbols, rec.Ticker)
	}
	tickers := dedupe(symbols)

	s.logger.Info("loaded ticker universe", "count", len(tickers), "cached", fromCache)
	return tickers, nil
}

func (s *SECSource) load(ctx context.Context) (data []byte, fromCache bool, err error) {
	if s.cachePath != "" {
		data, err := os.ReadFile(s.cachePath)
		if err == nil {
			return data, true, nil
		}
		if !os.IsNotExist(err) {
			return nil, false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching company tickers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetching company tickers: %s", resp.Status)
	}
	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if s.cachePath != "" {
		if err := os.WriteFile(s.cachePath, data, 0o644); err != nil {
			// The cache is an optimization; a write failure is not fatal.
			s.logger.Warn("could not write ticker cache", "path", s.cachePath, "error", err)
		}
	}
	return data, false, nil
}

// StaticSource serves a fixed symbol list, de-duplicated. Useful for targeted
// ingestion runs and tests.
type StaticSource struct {
	symbols []string
}

// NewStaticSource creates a source over the given symbols.
func NewStaticSource(symbols ...string) *StaticSource {
	return &StaticSource{symbols: symbols}
}

// Tickers returns the distinct symbols in their original order.
func (s *StaticSource) Tickers(ctx context.Context) ([]core.TickerRecord, error) {
	return dedupe(s.symbols), nil
}

func dedupe(symbols []string) []core.TickerRecord {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]core.TickerRecord, 0, len(symbols))
	for _, symbol := range symbols {
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, core.TickerRecord{Symbol: symbol})
	}
	return out
}
