// Package badger provides an embedded vector index backed by BadgerDB. It is
// the local-development and testing stand-in for the hosted index: filtering
// and similarity ranking happen in-process with a full scan, which is fine at
// listing-universe scale (a few thousand entries).
package badger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// backend wraps a BadgerDB instance and provides low-level operations.
type backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// openBackend opens a BadgerDB database at the specified path, creating the
// directory if it doesn't exist. An empty path with inMemory=true gives a
// throwaway database for tests.
func openBackend(filePath string, inMemory bool, logger *slog.Logger) (*backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &backend{db: db, logger: logger}, nil
}

// close closes the BadgerDB database.
func (b *backend) close() error {
	return b.db.Close()
}

// isClosed returns true if the database is closed.
func (b *backend) isClosed() bool {
	return b.db.IsClosed()
}

// withTx executes a function within a BadgerDB transaction. If isWrite is
// true, creates a read-write transaction. The transaction is automatically
// discarded if fn returns an error.
func (b *backend) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return err
	}
	if isWrite {
		return tx.Commit()
	}
	return nil
}
