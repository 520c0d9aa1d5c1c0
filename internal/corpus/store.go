// Package corpus persists the pipeline's tabular outputs: the append-only
// corpus CSV, the quality-checked CSV, the sampled CSV, and the raw JSON
// response archive.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// Store is the append-only corpus CSV file. The fixed header is written
// exactly once, on first append; subsequent appends add rows only.
type Store struct {
	path string
}

// NewStore creates a Store for the CSV file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the underlying file path.
func (s *Store) Path() string {
	return s.path
}

// Truncate removes the corpus file, for fresh (non-resuming) runs.
func (s *Store) Truncate() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("truncating corpus: %w", err)
	}
	return nil
}

// Append writes records to the end of the corpus file, creating it (and
// its header) if needed.
func (s *Store) Append(records []domain.FlatRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}

	writeHeader := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(domain.RecordColumns); err != nil {
			return fmt.Errorf("writing corpus header: %w", err)
		}
	}
	for i := range records {
		if err := w.Write(records[i].Row()); err != nil {
			return fmt.Errorf("writing corpus row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing corpus: %w", err)
	}

	return f.Sync()
}

// ReadAll loads every record from the corpus file.
func (s *Store) ReadAll() ([]domain.FlatRecord, error) {
	return ReadRecords(s.path)
}

// ReadRecords loads all FlatRecords from the CSV file at path. The file
// must carry the standard corpus header.
func ReadRecords(path string) ([]domain.FlatRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if len(rows[0]) != len(domain.RecordColumns) {
		return nil, fmt.Errorf("corpus header has %d columns, want %d", len(rows[0]), len(domain.RecordColumns))
	}

	records := make([]domain.FlatRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, ok := domain.RecordFromRow(row)
		if !ok {
			return nil, fmt.Errorf("corpus row %d has %d fields, want %d", i+2, len(row), len(domain.RecordColumns))
		}
		records = append(records, record)
	}

	return records, nil
}

// WriteRecords writes records (with header) to path, replacing any
// existing file. Used for the filtered and sampled outputs, which are
// derived views rather than append-only stores.
func WriteRecords(path string, records []domain.FlatRecord) error {
	return writeCSV(path, domain.RecordColumns, len(records), func(i int) []string {
		return records[i].Row()
	})
}

// WriteChecked writes every record plus a trailing is_valid column holding
// its quality verdict. records and verdicts must be parallel slices.
func WriteChecked(path string, records []domain.FlatRecord, verdicts []domain.Verdict) error {
	if len(records) != len(verdicts) {
		return fmt.Errorf("record/verdict length mismatch: %d vs %d", len(records), len(verdicts))
	}

	header := append(append([]string{}, domain.RecordColumns...), "is_valid")
	return writeCSV(path, header, len(records), func(i int) []string {
		valid := "false"
		if verdicts[i].Valid {
			valid = "true"
		}
		return append(records[i].Row(), valid)
	})
}

// writeCSV writes a header plus n rows produced by row.
func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	return f.Sync()
}
