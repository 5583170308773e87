package ai

import "errors"

var (
	// ErrMalformedExtraction indicates the completion model returned output
	// that could not be parsed or validated as an extraction result, even
	// after retries. Surfaced to the caller; never replaced by an empty
	// filter.
	ErrMalformedExtraction = errors.New("malformed extraction response")

	// ErrNoCompletion indicates the completion model returned no choices.
	ErrNoCompletion = errors.New("completion model returned no choices")
)
