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


// Package retrieval turns an extracted query into a bounded context bundle
// and the final prompt. The question must be embedded with the same embedder
// configuration used at ingestion; mismatched embedding spaces return
// plausible-looking garbage.
package retrieval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/stockscope/ai"
	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/index"
)

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")
)

// Assembler builds context bundles from the vector index.
type Assembler struct {
	embedder  ai.Embedder
	index     index.Index
	namespace string
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithNamespace sets the index namespace queried.
// Default is index.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(a *Assembler) { a.namespace = namespace }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) { a.logger = logger.With("component", "retrieval") }
}

// NewAssembler creates a retrieval assembler.
func NewAssembler(embedder ai.Embedder, idx index.Index, opts ...Option) (*Assembler, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	a := &Assembler{
		embedder:  embedder,
		index:     idx,
		namespace: index.DefaultNamespace,
		logger:    slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assemble embeds the question, queries the index with the filter, and
// returns the summaries of the best matches in ranking order. An empty match
// set yields an empty bundle, not an error.
func (a *Assembler) Assemble(ctx context.Context, filter core.Filter, question string) (Bundle, error) {
	vector, err := a.embedder.EmbedText(ctx, question)
	if err != nil {
		return Bundle{}, err
	}

	matches, err := a.index.Query(ctx, a.namespace, vector, filter, MaxSnippets)
	if err != nil {
		return Bundle{}, err
	}

	snippets := make([]string, 0, len(matches))
	for _, match := range matches {
		snippets = append(snippets, match.Entry.Text)
	}
	if len(snippets) > MaxSnippets {
		snippets = snippets[:MaxSnippets]
	}

	a.logger.Debug("assembled context", "matches", len(snippets))
	return Bundle{Snippets: snippets}, nil
}
