// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package yahoo fetches stock facts from Yahoo Finance. Market numerics come
// from the quote API via finance-go; the business summary and classification
// fields come from the quoteSummary assetProfile and financialData modules,
// which finance-go does not cover.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"

	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/marketdata"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetcher implements marketdata.Fetcher against Yahoo Finance.
type Fetcher struct {
	getQuote func(symbol string) (*finance.Equity, error)
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
}

var _ marketdata.Fetcher = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the quoteSummary endpoint host.
func WithBaseURL(baseURL string) Option {
	return func(f *Fetcher) { f.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client for quoteSummary calls.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithQuoteFunc overrides the quote lookup. Tests use this to avoid the
// network; finance-go's equity.Get has no injectable transport.
func WithQuoteFunc(fn func(symbol string) (*finance.Equity, error)) Option {
	return func(f *Fetcher) { f.getQuote = fn }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger.With("component", "yahoo") }
}

// NewFetcher creates a Yahoo Finance fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		getQuote: equity.Get,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default().With("component", "yahoo"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// summaryModules mirrors the subset of the quoteSummary payload we read.
type summaryModules struct {
	AssetProfile struct {
		City                string `json:"city"`
		State               string `json:"state"`
		Country             string `json:"country"`
		Industry            string `json:"industry"`
		Sector              string `json:"sector"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	FinancialData struct {
		RecommendationKey string `json:"recommendationKey"`
	} `json:"financialData"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []summaryModules `json:"result"`
	} `json:"quoteSummary"`
}

// Fetch retrieves the facts for one symbol. Missing individual fields are
// tolerated and surface as absent values; a symbol unknown to the quote API
// is ErrNoData.
func (f *Fetcher) Fetch(ctx context.Context, symbol string) (core.StockFacts, error) {
	q, err := f.getQuote(symbol)
	if err != nil {
		return core.StockFacts{}, fmt.Errorf("%w: %s: %v", marketdata.ErrNoData, symbol, err)
	}
	if q == nil {
		return core.StockFacts{}, fmt.Errorf("%w: %s", marketdata.ErrNoData, symbol)
	}

	facts := core.StockFacts{
		Ticker:         symbol,
		Name:           q.ShortName,
		MarketCap:      core.NoValue(),
		Volume:         core.NoValue(),
		PERatio:        core.NoValue(),
		Price:          core.NoValue(),
		Recommendation: "",
	}
	if q.MarketCap > 0 {
		facts.MarketCap = float64(q.MarketCap)
	}
	if q.RegularMarketVolume > 0 {
		facts.Volume = float64(q.RegularMarketVolume)
	}
	if q.TrailingPE > 0 {
		facts.PERatio = q.TrailingPE
	}
	if q.RegularMarketPrice > 0 {
		facts.Price = q.RegularMarketPrice
	}

	profile, err := f.fetchSummary(ctx, symbol)
	if err != nil {
		return core.StockFacts{}, err
	}
	facts.BusinessSummary = profile.AssetProfile.LongBusinessSummary
	facts.City = profile.AssetProfile.City
	facts.State = profile.AssetProfile.State
	facts.Country = profile.AssetProfile.Country
	facts.Industry = profile.AssetProfile.Industry
	facts.Sector = profile.AssetProfile.Sector
	facts.Recommendation = profile.FinancialData.RecommendationKey

	return facts, nil
}

func (f *Fetcher) fetchSummary(ctx context.Context, symbol string) (result summaryModules, err error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,financialData", f.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("fetching profile for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return result, fmt.Errorf("%w: %s", marketdata.ErrNoData, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("fetching profile for %s: %s", symbol, resp.Status)
	}

	var payload quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return result, fmt.Errorf("decoding profile for %s: %w", symbol, err)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return result, fmt.Errorf("%w: %s", marketdata.ErrNoData, symbol)
	}
	return payload.QuoteSummary.Result[0], nil
}
