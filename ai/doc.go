// Package ai provides abstractions for the AI services used in stockscope.
//
// The package defines interfaces for the two opaque oracles the pipelines
// depend on: text embedding (Embedder) and filter extraction (QueryExtractor).
// Core and pipeline code depend on these abstractions rather than concrete
// implementations, so tests can substitute fakes for network services.
//
// Implementation sub-packages:
//
//   - ai/openai: production implementation over OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in the implementation packages return the interface
// types to enforce abstraction; mock constructors return concrete types so
// tests can reach assertion helpers.
package ai
