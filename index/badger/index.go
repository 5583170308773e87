package badger

import (
	"context"
	"log/slog"
	"math"
	"slices"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/poiesic/stockscope/core"
	"github.com/poiesic/stockscope/index"
)

// Index is the embedded index.Index implementation. Metadata filtering is
// evaluated locally against each entry's stored facts.
type Index struct {
	backend *backend
	logger  *slog.Logger
}

var _ index.Index = (*Index)(nil)

// Open opens an embedded index at path. With inMemory set, path is ignored
// and nothing touches disk.
func Open(path string, inMemory bool, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "badger-index")

	b, err := openBackend(path, inMemory, logger)
	if err != nil {
		return nil, err
	}
	return &Index{backend: b, logger: logger}, nil
}

// Upsert writes entries keyed by the BLAKE2b hash of their symbol, so
// re-ingesting a symbol overwrites its record.
func (i *Index) Upsert(ctx context.Context, namespace string, entries ...index.Entry) error {
	if i.backend.isClosed() {
		return index.ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return i.backend.withTx(func(tx *badgerdb.Txn) error {
		for _, entry := range entries {
			if entry.ID == "" || len(entry.Vector) == 0 {
				return index.ErrEmptyEntry
			}
			stored := storedEntry{
				Symbol: entry.ID,
				Text:   entry.Text,
				Facts:  core.FactsFromMetadata(entry.Metadata),
				Vector: entry.Vector,
			}
			key := makeEntryKey(namespace, core.IDFromSymbol(entry.ID))
			if err := tx.Set(key, marshalEntry(stored)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Query scans the namespace, keeps entries whose metadata matches the filter,
// and returns the topK by cosine similarity, highest first.
func (i *Index) Query(ctx context.Context, namespace string, vector []float32, filter core.Filter, topK int) ([]index.Match, error) {
	if i.backend.isClosed() {
		return nil, index.ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches []index.Match
	err := i.backend.withTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var stored storedEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				stored, err = unmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}

			meta := stored.Facts.Metadata()
			if !filter.Matches(meta) {
				continue
			}

			matches = append(matches, index.Match{
				Entry: index.Entry{
					ID:       stored.Symbol,
					Vector:   stored.Vector,
					Metadata: meta,
					Text:     stored.Text,
				},
				Score: cosineSimilarity(vector, stored.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b index.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.backend.close()
}

// cosineSimilarity does not assume normalized vectors; embedding providers
// differ on that.
func cosineSimilarity(a, b []float32) float32 {
	minLen := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
