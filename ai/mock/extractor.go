package mock

import (
	"context"

	"github.com/poiesic/stockscope/ai"
)

// MockQueryExtractor is a test double for ai.QueryExtractor.
// It allows custom behavior injection via function fields.
type MockQueryExtractor struct {
	// ExtractQueryFunc is called by ExtractQuery if set.
	// If nil, the default returns the full user query as the question with
	// no filter, mirroring a query with nothing filterable in it.
	ExtractQueryFunc func(ctx context.Context, userQuery string) (ai.ExtractedQuery, error)

	callCount int
}

// NewMockQueryExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockQueryExtractor() *MockQueryExtractor {
	return &MockQueryExtractor{}
}

// ExtractQuery returns a canned or default extraction result.
func (m *MockQueryExtractor) ExtractQuery(ctx context.Context, userQuery string) (ai.ExtractedQuery, error) {
	m.callCount++

	if m.ExtractQueryFunc != nil {
		return m.ExtractQueryFunc(ctx, userQuery)
	}

	return ai.ExtractedQuery{Question: userQuery}, nil
}

// CallCount returns the number of times ExtractQuery was called.
func (m *MockQueryExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockQueryExtractor) Reset() {
	m.callCount = 0
	m.ExtractQueryFunc = nil
}
