package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() FlatRecord {
	return FlatRecord{
		ID:             "D123456",
		Query:          "monetary policy",
		Title:          "Monetary Policy Review",
		Abstract:       "An assessment of recent monetary policy decisions.",
		Language:       "English",
		Country:        "Kenya",
		Region:         "Africa East",
		DocType:        "Report",
		DisclosureDate: "2021-03-15",
		Keywords:       "inflation; interest rates",
		Theme:          "Economic Policy",
		Subtopic:       "Macroeconomics",
		HistoricTopics: "Macroeconomics and Economic Growth",
		PDFURL:         "http://documents.example.org/D123456.pdf",
	}
}

func TestRowMatchesColumnOrder(t *testing.T) {
	record := sampleRecord()
	row := record.Row()

	require.Len(t, row, len(RecordColumns))
	assert.Equal(t, record.ID, row[0])
	assert.Equal(t, record.Query, row[1])
	assert.Equal(t, record.Title, row[2])
	assert.Equal(t, record.Abstract, row[3])
	assert.Equal(t, record.PDFURL, row[len(row)-1])
}

func TestRecordFromRowRoundTrip(t *testing.T) {
	record := sampleRecord()

	got, ok := RecordFromRow(record.Row())
	require.True(t, ok)
	assert.Equal(t, record, got)
}

func TestRecordFromRowWrongLength(t *testing.T) {
	_, ok := RecordFromRow([]string{"only", "four", "fields", "here"})
	assert.False(t, ok)

	_, ok = RecordFromRow(nil)
	assert.False(t, ok)
}
