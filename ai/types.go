package ai

import "github.com/poiesic/stockscope/core"

// ExtractedQuery is the structured result of filter extraction.
type ExtractedQuery struct {
	// Filter restricts the similarity search by metadata. The zero filter
	// means the model found nothing filterable (match-all).
	Filter core.Filter

	// Question is the residual part of the user query that could not be
	// expressed as a filter. May be empty; callers fall back to embedding
	// the full user query in that case.
	Question string
}
