// Package pinecone is a minimal REST client for a Pinecone index, the
// production deployment target for the stock vector data. It speaks the data
// plane endpoints only (upsert and query); index provisioning stays outside
// this module's responsibility.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/index"
)

// textKey is the metadata key carrying the raw summary text, matching the
// layout the original index was populated with.
const textKey = "text"

// Client implements index.Index against a Pinecone index host.
type Client struct {
	host   string
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// Config holds connection details for one Pinecone index.
type Config struct {
	// Host is the index endpoint, e.g. "https://stocks-abc123.svc.pinecone.io".
	Host string
	// APIKey authenticates data plane requests.
	APIKey string
	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration
}

// NewClient creates a Pinecone data plane client.
//
// Returns index.Index to enforce abstraction.
func NewClient(cfg Config) (index.Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: host is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: api key is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:   cfg.Host,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: slog.Default().With("component", "pinecone"),
	}, nil
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

type upsertRequest struct {
	Vectors   []upsertVector `json:"vectors"`
	Namespace string         `json:"namespace"`
}

// Upsert writes entries keyed by their ID; Pinecone overwrites on ID collision.
// The summary text rides along under the "text" metadata key.
func (c *Client) Upsert(ctx context.Context, namespace string, entries ...index.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	req := upsertRequest{Namespace: namespace, Vectors: make([]upsertVector, 0, len(entries))}
	for _, entry := range entries {
		if entry.ID == "" || len(entry.Vector) == 0 {
			return index.ErrEmptyEntry
		}
		meta := make(map[string]any, len(entry.Metadata)+1)
		for k, v := range entry.Metadata {
			meta[k] = v
		}
		meta[textKey] = entry.Text
		req.Vectors = append(req.Vectors, upsertVector{
			ID:       entry.ID,
			Values:   entry.Vector,
			Metadata: meta,
		})
	}

	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := c.post(ctx, "/vectors/upsert", req, &resp); err != nil {
		return err
	}
	c.logger.Debug("upserted vectors", "namespace", namespace, "count", resp.UpsertedCount)
	return nil
}

type queryRequest struct {
	Namespace       string          `json:"namespace"`
	Vector          []float32       `json:"vector"`
	Filter          json.RawMessage `json:"filter,omitempty"`
	TopK            int             `json:"topK"`
	IncludeMetadata bool            `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float32        `json:"score"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Query runs a filtered nearest-neighbor search; filtering happens
// server-side in the index engine.
func (c *Client) Query(ctx context.Context, namespace string, vector []float32, filter core.Filter, topK int) ([]index.Match, error) {
	req := queryRequest{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}
	if !filter.IsZero() {
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, err
		}
		req.Filter = raw
	}

	var resp queryResponse
	if err := c.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]index.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		text, _ := m.Metadata[textKey].(string)
		delete(m.Metadata, textKey)
		matches = append(matches, index.Match{
			Entry: index.Entry{
				ID:       m.ID,
				Vector:   m.Values,
				Metadata: m.Metadata,
				Text:     text,
			},
			Score: m.Score,
		})
	}
	return matches, nil
}

// Close is a no-op; the client holds no persistent connections.
func (c *Client) Close() error {
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %s", index.ErrIndexUnavailable, path, resp.Status, snippet)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
