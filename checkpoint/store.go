// Package checkpoint tracks per-symbol ingestion outcomes in two durable
// append-only logs, making ingestion resumable and idempotent across runs.
//
// The on-disk format is one bare symbol per line; symbols are alphanumeric
// tickers, so no escaping is needed. The files are append-only: outcomes are
// never deleted or rewritten, and the recorded sets only grow.
package checkpoint

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Store is the durable record of which symbols have been successfully or
// unsuccessfully ingested. Safe for concurrent use by worker-pool tasks.
type Store struct {
	success *symbolLog
	failure *symbolLog
	logger  *slog.Logger
}

// Open loads both logs and keeps the files open for appending. A missing file
// is a normal first-run condition, not an error.
func Open(successPath, failurePath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "checkpoint")

	success, err := openSymbolLog(successPath)
	if err != nil {
		return nil, fmt.Errorf("opening success log: %w", err)
	}
	failure, err := openSymbolLog(failurePath)
	if err != nil {
		success.close()
		return nil, fmt.Errorf("opening failure log: %w", err)
	}

	logger.Info("loaded checkpoint logs",
		"successful", len(success.seen),
		"unsuccessful", len(failure.seen))

	return &Store{success: success, failure: failure, logger: logger}, nil
}

// RecordSuccess appends a symbol to the success log. The durable append
// happens before the in-memory set is updated, so a crash between the two
// leaves the log authoritative on restart.
func (s *Store) RecordSuccess(symbol string) error {
	return s.success.record(symbol)
}

// RecordFailure appends a symbol to the failure log.
func (s *Store) RecordFailure(symbol string) error {
	return s.failure.record(symbol)
}

// Successes returns a snapshot copy of the successfully ingested symbols.
func (s *Store) Successes() map[string]struct{} {
	return s.success.snapshot()
}

// Failures returns a snapshot copy of the unsuccessfully ingested symbols.
func (s *Store) Failures() map[string]struct{} {
	return s.failure.snapshot()
}

// Close closes both log files.
func (s *Store) Close() error {
	err1 := s.success.close()
	err2 := s.failure.close()
	if err1 != nil {
		return err1
	}
	return err2
}

// symbolLog is one append-only newline-delimited symbol file with its
// in-memory set.
type symbolLog struct {
	mu   sync.Mutex
	file *os.File
	seen map[string]struct{}
}

func openSymbolLog(path string) (*symbolLog, error) {
	seen := make(map[string]struct{})

	data, err := os.ReadFile(path)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				seen[line] = struct{}{}
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &symbolLog{file: file, seen: seen}, nil
}

func (l *symbolLog) record(symbol string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := bufio.NewWriter(l.file)
	if _, err := w.WriteString(symbol + "\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	l.seen[symbol] = struct{}{}
	return nil
}

func (l *symbolLog) snapshot() map[string]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]struct{}, len(l.seen))
	for symbol := range l.seen {
		out[symbol] = struct{}{}
	}
	return out
}

func (l *symbolLog) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
