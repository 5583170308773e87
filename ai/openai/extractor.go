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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/stockscope/ai"
	"github.com/poiesic/stockscope/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// QueryExtractor implements ai.QueryExtractor using OpenAI-compatible chat APIs.
type QueryExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// extraction is an internal type used for JSON unmarshaling.
// It matches the structure requested from the LLM.
type extraction struct {
	Filter   json.RawMessage `json:"filter"`
	Question string          `json:"question"`
}

// newQueryExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryExtractor(config *ai.Config) (*QueryExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &QueryExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewQueryExtractor creates a new filter extractor using the provided configuration.
//
// Returns ai.QueryExtractor interface to enforce abstraction.
func NewQueryExtractor(config *ai.Config) (ai.QueryExtractor, error) {
	return newQueryExtractor(config)
}

// ExtractQuery converts a user query into a metadata filter plus residual
// question with a single JSON-mode completion per attempt. Malformed model
// output is retried up to 3 times and then surfaced as an error; a filter
// referencing unknown fields or operators is rejected the same way.
func (e *QueryExtractor) ExtractQuery(ctx context.Context, userQuery string) (ai.ExtractedQuery, error) {
	prompt := buildExtractionPrompt(userQuery)
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.ExtractedQuery{}, err
		}

		if len(response.Choices) < 1 {
			return ai.ExtractedQuery{}, ai.ErrNoCompletion
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		query, err := parseExtraction(responseText)
		if err != nil {
			lastErr = err
			e.logger.Warn("error parsing extraction response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		e.logger.Debug("extracted query",
			"has_filter", !query.Filter.IsZero(),
			"question", query.Question)
		return query, nil
	}

	e.logger.Error("failed to parse extraction response after retries", "err", lastErr)
	return ai.ExtractedQuery{}, fmt.Errorf("%w: %v", ai.ErrMalformedExtraction, lastErr)
}

// parseExtraction decodes and validates one extraction response. The filter
// goes through the schema-validated decode in core; an omitted filter means
// no metadata restriction.
func parseExtraction(responseText string) (ai.ExtractedQuery, error) {
	var resp extraction
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		return ai.ExtractedQuery{}, err
	}

	filter, err := core.ParseFilter(resp.Filter)
	if err != nil {
		return ai.ExtractedQuery{}, err
	}

	return ai.ExtractedQuery{
		Filter:   filter,
		Question: strings.TrimSpace(resp.Question),
	}, nil
}
