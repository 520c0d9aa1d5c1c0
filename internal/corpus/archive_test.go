package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openknowledge-labs/docharvest/internal/docsource/wds"
)

func sampleDocs(ids ...string) map[string]wds.RawDocument {
	docs := make(map[string]wds.RawDocument, len(ids))
	for _, id := range ids {
		docs[id] = wds.RawDocument{"id": id, "display_title": "Title " + id}
	}
	return docs
}

func readArchive(t *testing.T, path string) []archiveEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []archiveEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestRawArchiveAppendsEntriesPerQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	archive := NewRawArchive(path)

	require.NoError(t, archive.Archive("trade", sampleDocs("D1", "D2")))
	require.NoError(t, archive.Archive("health", sampleDocs("D3")))

	entries := readArchive(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "trade", entries[0].Query)
	assert.Len(t, entries[0].Documents, 2)
	assert.Equal(t, "health", entries[1].Query)
	assert.Len(t, entries[1].Documents, 1)
}

func TestRawArchiveResetEmptiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	archive := NewRawArchive(path)

	require.NoError(t, archive.Archive("trade", sampleDocs("D1")))
	require.NoError(t, archive.Reset())

	entries := readArchive(t, path)
	assert.Empty(t, entries)
}

func TestRawArchiveReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	archive := NewRawArchive(path)
	require.NoError(t, archive.Archive("trade", sampleDocs("D1")))

	entries := readArchive(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "trade", entries[0].Query)
}

func TestRawArchiveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "raw", "archive.json")
	archive := NewRawArchive(path)

	require.NoError(t, archive.Archive("trade", sampleDocs("D1")))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
