package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openknowledge-labs/docharvest/internal/docsource/wds"
)

// archiveEntry is one query's raw harvest in the archive file.
type archiveEntry struct {
	Query     string                     `json:"query"`
	Documents map[string]wds.RawDocument `json:"documents"`
}

// RawArchive keeps the unprocessed API documents per query as a JSON list
// of {query, documents} entries, so the corpus can be re-normalized later
// without re-harvesting.
type RawArchive struct {
	path string
}

// NewRawArchive creates a RawArchive at path.
func NewRawArchive(path string) *RawArchive {
	return &RawArchive{path: path}
}

// Reset replaces the archive with an empty list, for fresh runs.
func (a *RawArchive) Reset() error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	return os.WriteFile(a.path, []byte("[]"), 0o644)
}

// Archive appends one query's raw documents to the archive. An unreadable
// or corrupt existing archive is replaced rather than blocking the
// harvest; the CSV corpus, not the archive, is the primary output.
func (a *RawArchive) Archive(query string, docs map[string]wds.RawDocument) error {
	var entries []archiveEntry
	if data, err := os.ReadFile(a.path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			entries = nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading archive: %w", err)
	}

	entries = append(entries, archiveEntry{Query: query, Documents: docs})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("replacing archive: %w", err)
	}

	return nil
}
