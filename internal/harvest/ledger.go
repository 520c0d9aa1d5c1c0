package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// Ledger records which queries have been fully harvested, so a restarted
// job can skip them. Entries grow monotonically; a query is only ever
// appended, never removed.
type Ledger interface {
	// IsComplete reports whether query has already been fully harvested
	// and persisted.
	IsComplete(query string) bool

	// MarkComplete durably records query as done. Callers must only
	// invoke this after the query's records have been persisted; that
	// ordering is what guarantees at-least-once delivery of every
	// document.
	MarkComplete(query string) error

	// Completed returns the completed queries in the order they were
	// recorded.
	Completed() []string
}

// ledgerFile is the persisted ledger shape.
type ledgerFile struct {
	Queries []string `json:"queries"`
}

// FileLedger is a JSON-file-backed Ledger. It assumes a single writer; the
// pipeline runs queries strictly sequentially.
type FileLedger struct {
	path  string
	done  map[string]struct{}
	order []string
}

// Compile-time check that FileLedger implements Ledger.
var _ Ledger = (*FileLedger)(nil)

// NewFileLedger loads the ledger at path. A missing or corrupt store is
// treated as empty: the ledger fails open to "nothing done yet" rather
// than blocking progress, and a corrupt file is reported through the
// logger with domain.ErrMalformedLedger.
func NewFileLedger(path string, logger zerolog.Logger) *FileLedger {
	l := &FileLedger{
		path: path,
		done: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("ledger unreadable, starting empty")
		}
		return l
	}

	var persisted ledgerFile
	if err := json.Unmarshal(data, &persisted); err != nil {
		logger.Warn().
			Err(fmt.Errorf("%w: %v", domain.ErrMalformedLedger, err)).
			Str("path", path).
			Msg("ledger corrupt, starting empty")
		return l
	}

	for _, q := range persisted.Queries {
		if _, seen := l.done[q]; seen {
			continue
		}
		l.done[q] = struct{}{}
		l.order = append(l.order, q)
	}

	return l
}

// IsComplete implements Ledger.
func (l *FileLedger) IsComplete(query string) bool {
	_, ok := l.done[query]
	return ok
}

// MarkComplete implements Ledger. The file is rewritten atomically via a
// temp file and rename so a crash mid-write cannot corrupt the store.
func (l *FileLedger) MarkComplete(query string) error {
	if _, ok := l.done[query]; ok {
		return nil
	}
	l.done[query] = struct{}{}
	l.order = append(l.order, query)

	return l.persist()
}

// Completed implements Ledger.
func (l *FileLedger) Completed() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// persist writes the ledger to disk.
func (l *FileLedger) persist() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(ledgerFile{Queries: l.order}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}

	return nil
}
