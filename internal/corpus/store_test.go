package corpus

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

func record(id, query string) domain.FlatRecord {
	return domain.FlatRecord{
		ID:       id,
		Query:    query,
		Title:    "Title " + id,
		Abstract: "Abstract for " + id,
		Language: "English",
	}
}

func TestStoreAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	store := NewStore(path)

	require.NoError(t, store.Append([]domain.FlatRecord{record("D1", "trade")}))
	require.NoError(t, store.Append([]domain.FlatRecord{record("D2", "health")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(domain.RecordColumns, ","), lines[0])
	assert.Equal(t, 1, strings.Count(string(data), "id,query,"), "header must appear exactly once")
}

func TestStoreAppendThenReadAllRoundTrips(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "corpus.csv"))
	want := []domain.FlatRecord{record("D1", "trade"), record("D2", "trade")}

	require.NoError(t, store.Append(want))

	got, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreAppendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "raw", "corpus.csv")
	store := NewStore(path)

	require.NoError(t, store.Append([]domain.FlatRecord{record("D1", "trade")}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStoreTruncateRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	store := NewStore(path)
	require.NoError(t, store.Append([]domain.FlatRecord{record("D1", "trade")}))

	require.NoError(t, store.Truncate())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Truncating an already-absent file is not an error.
	assert.NoError(t, store.Truncate())
}

func TestReadRecordsRejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,query\nD1,trade\n"), 0o644))

	_, err := ReadRecords(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestWriteRecordsReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteRecords(path, []domain.FlatRecord{record("D1", "trade"), record("D2", "trade")}))
	require.NoError(t, WriteRecords(path, []domain.FlatRecord{record("D3", "health")}))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D3", got[0].ID)
}

func TestWriteCheckedAddsVerdictColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checked.csv")
	records := []domain.FlatRecord{record("D1", "trade"), record("D2", "trade")}
	verdicts := []domain.Verdict{
		{Valid: true},
		{Valid: false, Failed: domain.CheckLength},
	}

	require.NoError(t, WriteChecked(path, records, verdicts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "is_valid", rows[0][len(rows[0])-1])
	assert.Equal(t, "true", rows[1][len(rows[1])-1])
	assert.Equal(t, "false", rows[2][len(rows[2])-1])
}

func TestWriteCheckedRejectsMismatchedSlices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checked.csv")
	err := WriteChecked(path, []domain.FlatRecord{record("D1", "trade")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
