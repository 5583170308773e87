package yahoo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	finance "github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/stockscope/marketdata"
)

const summaryJSON = `{
	"quoteSummary": {
		"result": [{
			"assetProfile": {
				"city": "Cupertino",
				"state": "CA",
				"country": "United States",
				"industry": "Consumer Electronics",
				"sector": "Technology",
				"longBusinessSummary": "Apple designs consumer electronics."
			},
			"financialData": {"recommendationKey": "buy"}
		}]
	}
}`

func newTestFetcher(t *testing.T, quote *finance.Equity, quoteErr error, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewFetcher(
		WithBaseURL(server.URL),
		WithQuoteFunc(func(symbol string) (*finance.Equity, error) {
			return quote, quoteErr
		}),
	)
}

func TestFetcher_Fetch(t *testing.T) {
	q := &finance.Equity{
		Quote: finance.Quote{
			ShortName:           "Apple Inc.",
			RegularMarketPrice:  190.5,
			RegularMarketVolume: 55_000_000,
		},
		MarketCap:  3_000_000_000_000,
		TrailingPE: 31.2,
	}
	fetcher := newTestFetcher(t, q, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Equal(t, "assetProfile,financialData", r.URL.Query().Get("modules"))
		w.Write([]byte(summaryJSON))
	})

	facts, err := fetcher.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", facts.Ticker)
	assert.Equal(t, "Apple Inc.", facts.Name)
	assert.Equal(t, "Apple designs consumer electronics.", facts.BusinessSummary)
	assert.Equal(t, "Cupertino", facts.City)
	assert.Equal(t, "Technology", facts.Sector)
	assert.Equal(t, "buy", facts.Recommendation)
	assert.Equal(t, 190.5, facts.Price)
	assert.Equal(t, 3e12, facts.MarketCap)
	assert.Equal(t, 31.2, facts.PERatio)
}

func TestFetcher_MissingNumericsBecomeAbsent(t *testing.T) {
	fetcher := newTestFetcher(t, &finance.Equity{Quote: finance.Quote{ShortName: "Shell Co"}}, nil,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(summaryJSON))
		})

	facts, err := fetcher.Fetch(context.Background(), "SHEL")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(facts.Price))
	assert.True(t, math.IsNaN(facts.MarketCap))
	assert.True(t, math.IsNaN(facts.Volume))
	assert.True(t, math.IsNaN(facts.PERatio))
}

func TestFetcher_QuoteErrorIsNoData(t *testing.T) {
	fetcher := newTestFetcher(t, nil, errors.New("boom"),
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

	_, err := fetcher.Fetch(context.Background(), "NOPE")
	assert.ErrorIs(t, err, marketdata.ErrNoData)
}

func TestFetcher_NilQuoteIsNoData(t *testing.T) {
	fetcher := newTestFetcher(t, nil, nil,
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

	_, err := fetcher.Fetch(context.Background(), "NOPE")
	assert.ErrorIs(t, err, marketdata.ErrNoData)
}

func TestFetcher_EmptySummaryResultIsNoData(t *testing.T) {
	fetcher := newTestFetcher(t, &finance.Equity{}, nil,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteSummary": {"result": []}}`))
		})

	_, err := fetcher.Fetch(context.Background(), "GONE")
	assert.ErrorIs(t, err, marketdata.ErrNoData)
}

func TestFetcher_ProfileServerError(t *testing.T) {
	fetcher := newTestFetcher(t, &finance.Equity{}, nil,
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		})

	_, err := fetcher.Fetch(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, marketdata.ErrNoData)
}
