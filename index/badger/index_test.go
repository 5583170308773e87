package badger

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/index"
)

func openMemoryIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func stockEntry(symbol, sector string, marketCap float64, vector []float32) index.Entry {
	facts := core.StockFacts{
		Ticker:          symbol,
		Name:            symbol + " Inc.",
		BusinessSummary: symbol + " does business.",
		Sector:          sector,
		MarketCap:       marketCap,
		Volume:          core.NoValue(),
		PERatio:         core.NoValue(),
		Price:           core.NoValue(),
	}
	return index.Entry{
		ID:       symbol,
		Vector:   vector,
		Metadata: facts.Metadata(),
		Text:     facts.BusinessSummary,
	}
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	idx := openMemoryIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, index.DefaultNamespace,
		stockEntry("AAPL", "Technology", 3e12, []float32{1, 0}),
		stockEntry("XOM", "Energy", 4e11, []float32{0, 1}),
	))

	matches, err := idx.Query(ctx, index.DefaultNamespace, []float32{1, 0}, core.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Nearest first.
	assert.Equal(t, "AAPL", matches[0].Entry.ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.001)
	assert.Equal(t, "XOM", matches[1].Entry.ID)
	assert.Equal(t, "AAPL does business.", matches[0].Entry.Text)
	assert.Equal(t, "Technology", matches[0].Entry.Metadata[core.FieldSector])
}

func TestIndex_UpsertOverwritesSameSymbol(t *testing.T) {
	idx := openMemoryIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, index.DefaultNamespace,
		stockEntry("AAPL", "Technology", 3e12, []float32{1, 0})))
	require.NoError(t, idx.Upsert(ctx, index.DefaultNamespace,
		stockEntry("AAPL", "Technology", 3.5e12, []float32{0, 1})))

	matches, err := idx.Query(ctx, index.DefaultNamespace, []float32{0, 1}, core.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 3.5e12, matches[0].Entry.Metadata[core.FieldMarketCap].(float64), 1)
}

func TestIndex_QueryAppliesFilter(t *testing.T) {
	idx := openMemoryIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, index.DefaultNamespace,
		stockEntry("AAPL", "Technology", 3e12, []float32{1, 0}),
		stockEntry("MSFT", "Technology", 2.8e12, []float32{0.9, 0.1}),
		stockEntry("XOM", "Energy", 4e11, []float32{1, 0}),
	))

	filter, err := core.ParseFilter([]byte(`{
		"Sector": {"$eq": "Technology"},
		"Market Cap": {"$gt": 2.9e12}
	}`))
	require.NoError(t, err)

	matches, err := idx.Query(ctx, index.DefaultNamespace, []float32{1, 0}, filter, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "AAPL", matches[0].Entry.ID)
}

func TestIndex_QueryRespectsTopK(t *testing.T) {
	idx := openMemoryIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, index.DefaultNamespace,
		stockEntry("A", "Technology", 1, []float32{1, 0}),
		stockEntry("B", "Technology", 2, []float32{0.9, 0.1}),
		stockEntry("C", "Technology", 3, []float32{0.8, 0.2}),
	))

	matches, err := idx.Query(ctx, index.DefaultNamespace, []float32{1, 0}, core.Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestIndex_NamespacesAreIsolated(t *testing.T) {
	idx := openMemoryIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "alpha",
		stockEntry("AAPL", "Technology", 3e12, []float32{1, 0})))

	matches, err := idx.Query(ctx, "beta", []float32{1, 0}, core.Filter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIndex_RejectsEmptyEntry(t *testing.T) {
	idx := openMemoryIndex(t)

	err := idx.Upsert(context.Background(), index.DefaultNamespace, index.Entry{ID: "AAPL"})
	assert.ErrorIs(t, err, index.ErrEmptyEntry)
}

func TestIndex_ClosedIndexErrors(t *testing.T) {
	idx, err := Open("", true, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	err = idx.Upsert(context.Background(), index.DefaultNamespace,
		stockEntry("AAPL", "Technology", 3e12, []float32{1, 0}))
	assert.ErrorIs(t, err, index.ErrIndexClosed)

	_, err = idx.Query(context.Background(), index.DefaultNamespace, []float32{1, 0}, core.Filter{}, 1)
	assert.ErrorIs(t, err, index.ErrIndexClosed)
}

func TestEntrySerialization_RoundTrip(t *testing.T) {
	original := storedEntry{
		Symbol: "AAPL",
		Text:   "Apple designs consumer electronics.",
		Facts: core.StockFacts{
			Ticker:          "AAPL",
			Name:            "Apple Inc.",
			BusinessSummary: "Apple designs consumer electronics.",
			City:            "Cupertino",
			Sector:          "Technology",
			MarketCap:       3e12,
			Volume:          core.NoValue(),
			PERatio:         31.5,
			Price:           core.NoValue(),
		},
		Vector: []float32{0.1, -0.2, 0.3},
	}

	decoded, err := unmarshalEntry(marshalEntry(original))
	require.NoError(t, err)

	assert.Equal(t, original.Symbol, decoded.Symbol)
	assert.Equal(t, original.Text, decoded.Text)
	assert.Equal(t, original.Facts.Sector, decoded.Facts.Sector)
	assert.Equal(t, original.Facts.MarketCap, decoded.Facts.MarketCap)
	assert.Equal(t, original.Vector, decoded.Vector)

	// Absent numerics survive as NaN.
	assert.True(t, math.IsNaN(decoded.Facts.Volume))
	assert.True(t, math.IsNaN(decoded.Facts.Price))
}

func TestUnmarshalEntry_TruncatedData(t *testing.T) {
	data := marshalEntry(storedEntry{Symbol: "AAPL", Vector: []float32{1}})
	_, err := unmarshalEntry(data[:len(data)/2])
	assert.Error(t, err)
}
