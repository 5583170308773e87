package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/stockscope/ai/mock"
	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/index"
	badgerindex "github.com/poiesic/stockscope/index/badger"
)

func seedIndex(t *testing.T, entries ...index.Entry) *badgerindex.Index {
	t.Helper()
	idx, err := badgerindex.Open("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	if len(entries) > 0 {
		require.NoError(t, idx.Upsert(context.Background(), index.DefaultNamespace, entries...))
	}
	return idx
}

func summaryEntry(symbol, sector, summary string) index.Entry {
	facts := core.StockFacts{
		Ticker:          symbol,
		Name:            symbol + " Inc.",
		BusinessSummary: summary,
		Sector:          sector,
		MarketCap:       core.NoValue(),
		Volume:          core.NoValue(),
		PERatio:         core.NoValue(),
		Price:           core.NoValue(),
	}
	return index.Entry{
		ID:       symbol,
		Vector:   mock.DeterministicVector(summary, 16),
		Metadata: facts.Metadata(),
		Text:     summary,
	}
}

func TestAssembler_RequiresDependencies(t *testing.T) {
	idx := seedIndex(t)

	_, err := NewAssembler(nil, idx)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewAssembler(&mock.MockEmbedder{}, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)
}

func TestAssembler_Assemble(t *testing.T) {
	summary := "Apple designs consumer electronics."
	idx := seedIndex(t,
		summaryEntry("AAPL", "Technology", summary),
		summaryEntry("XOM", "Energy", "Exxon produces oil and gas."),
	)

	embedder := &mock.MockEmbedder{
		EmbedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return mock.DeterministicVector(summary, 16), nil
		},
	}
	assembler, err := NewAssembler(embedder, idx)
	require.NoError(t, err)

	bundle, err := assembler.Assemble(context.Background(), core.Filter{}, "who makes phones?")
	require.NoError(t, err)

	require.Len(t, bundle.Snippets, 2)
	// The snippet identical to the query vector ranks first.
	assert.Equal(t, summary, bundle.Snippets[0])
}

func TestAssembler_FilterRestrictsMatches(t *testing.T) {
	idx := seedIndex(t,
		summaryEntry("AAPL", "Technology", "Apple designs consumer electronics."),
		summaryEntry("XOM", "Energy", "Exxon produces oil and gas."),
	)

	assembler, err := NewAssembler(&mock.MockEmbedder{}, idx)
	require.NoError(t, err)

	filter, err := core.ParseFilter([]byte(`{"Sector": {"$eq": "Energy"}}`))
	require.NoError(t, err)

	bundle, err := assembler.Assemble(context.Background(), filter, "oil companies")
	require.NoError(t, err)
	require.Len(t, bundle.Snippets, 1)
	assert.Equal(t, "Exxon produces oil and gas.", bundle.Snippets[0])
}

func TestAssembler_EmptyResultIsEmptyBundle(t *testing.T) {
	idx := seedIndex(t)

	assembler, err := NewAssembler(&mock.MockEmbedder{}, idx)
	require.NoError(t, err)

	bundle, err := assembler.Assemble(context.Background(), core.Filter{}, "anything")
	require.NoError(t, err)
	assert.Empty(t, bundle.Snippets)
}

func TestAssembler_BoundsSnippets(t *testing.T) {
	entries := make([]index.Entry, 15)
	for i := range entries {
		symbol := fmt.Sprintf("S%02d", i)
		entries[i] = summaryEntry(symbol, "Technology", symbol+" does business.")
	}
	idx := seedIndex(t, entries...)

	assembler, err := NewAssembler(&mock.MockEmbedder{}, idx)
	require.NoError(t, err)

	bundle, err := assembler.Assemble(context.Background(), core.Filter{}, "tech")
	require.NoError(t, err)
	assert.Len(t, bundle.Snippets, MaxSnippets)
}

func TestAssembler_EmbedderErrorPropagates(t *testing.T) {
	idx := seedIndex(t)
	embedder := &mock.MockEmbedder{
		EmbedTextFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("model down")
		},
	}

	assembler, err := NewAssembler(embedder, idx)
	require.NoError(t, err)

	_, err = assembler.Assemble(context.Background(), core.Filter{}, "anything")
	assert.Error(t, err)
}

func TestBundle_Render(t *testing.T) {
	bundle := Bundle{Snippets: []string{"first summary", "second summary"}}
	rendered := bundle.Render()

	assert.Equal(t,
		"<CONTEXT>\nfirst summary\n\n-------\n\nsecond summary\n-------\n</CONTEXT>\n\n\n\n",
		rendered)
}

func TestBundle_RenderEmpty(t *testing.T) {
	assert.Equal(t,
		"<CONTEXT>\n\n-------\n</CONTEXT>\n\n\n\n",
		Bundle{}.Render())
}

func TestBundle_RenderTruncates(t *testing.T) {
	snippets := make([]string, 12)
	for i := range snippets {
		snippets[i] = fmt.Sprintf("summary %d", i)
	}
	rendered := Bundle{Snippets: snippets}.Render()

	assert.Contains(t, rendered, "summary 9")
	assert.NotContains(t, rendered, "summary 10")
}

func TestBuildPrompt(t *testing.T) {
	bundle := Bundle{Snippets: []string{"Apple designs consumer electronics."}}
	prompt := BuildPrompt(bundle, "who makes phones?")

	assert.True(t, strings.HasPrefix(prompt, "<CONTEXT>\n"))
	assert.Contains(t, prompt, "Apple designs consumer electronics.")
	assert.Contains(t, prompt, "MY QUESTION:")
	assert.Contains(t, prompt, "who makes phones?")
	assert.Contains(t, prompt, "company name, ticker, and the reason")
	assert.Contains(t, prompt, `"My apologies, but I do not have enough information to answer that question."`)
	// The instructions forbid referring to the context block itself.
	assert.Contains(t, prompt, "Never make reference to the context in your answer.")
}
