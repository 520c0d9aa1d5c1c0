package wds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// longAbstract returns abstract text guaranteed to clear the minimum
// length filter.
func longAbstract() string {
	return strings.Repeat("This report reviews fiscal policy outcomes. ", 10)
}

func TestNormalizeFullDocument(t *testing.T) {
	doc := RawDocument{
		"id":              "D200",
		"display_title":   "Fiscal Policy Review",
		"abstracts":       map[string]any{"cdata!": longAbstract()},
		"lang":            "English",
		"count":           "Ghana",
		"admreg":          "Africa West",
		"docty":           "Economic Report",
		"disclosure_date": "2022-06-01",
		"keywd": map[string]any{
			"keywd": []any{"fiscal policy", "taxation"},
		},
		"theme":          "Public Finance",
		"subtopic":       "Tax Policy",
		"historic_topic": "Macroeconomics and Economic Growth",
		"pdfurl":         "http://documents.example.org/D200.pdf",
	}

	record, ok := Normalize("D200", doc, "fiscal policy")
	require.True(t, ok)

	assert.Equal(t, "D200", record.ID)
	assert.Equal(t, "fiscal policy", record.Query)
	assert.Equal(t, "Fiscal Policy Review", record.Title)
	assert.Equal(t, longAbstract(), record.Abstract)
	assert.Equal(t, "English", record.Language)
	assert.Equal(t, "Ghana", record.Country)
	assert.Equal(t, "fiscal policy; taxation", record.Keywords)
	assert.Equal(t, "http://documents.example.org/D200.pdf", record.PDFURL)
}

func TestNormalizeDropsMissingAbstract(t *testing.T) {
	doc := RawDocument{
		"id":            "D201",
		"display_title": "No Abstract Here",
	}

	_, ok := Normalize("D201", doc, "trade")
	assert.False(t, ok)
}

func TestNormalizeDropsShortAbstract(t *testing.T) {
	doc := RawDocument{
		"id":        "D202",
		"abstracts": map[string]any{"cdata!": strings.Repeat("x", domain.MinAbstractLength-1)},
	}

	_, ok := Normalize("D202", doc, "trade")
	assert.False(t, ok)
}

func TestNormalizeKeepsAbstractAtThreshold(t *testing.T) {
	doc := RawDocument{
		"id":        "D203",
		"abstracts": map[string]any{"cdata!": strings.Repeat("x", domain.MinAbstractLength)},
	}

	record, ok := Normalize("D203", doc, "trade")
	require.True(t, ok)
	assert.Len(t, record.Abstract, domain.MinAbstractLength)
}

func TestNormalizeCountsAbstractLengthInRunes(t *testing.T) {
	// Two bytes per rune, so the byte length clears the threshold while
	// the rune count falls one short.
	short := strings.Repeat("é", domain.MinAbstractLength-1)
	doc := RawDocument{
		"id":        "D205",
		"abstracts": map[string]any{"cdata!": short},
	}
	_, ok := Normalize("D205", doc, "trade")
	assert.False(t, ok)

	doc["abstracts"] = map[string]any{"cdata!": strings.Repeat("é", domain.MinAbstractLength)}
	_, ok = Normalize("D205", doc, "trade")
	assert.True(t, ok)
}

func TestNormalizeFallsBackToMapKeyForID(t *testing.T) {
	doc := RawDocument{
		"abstracts": map[string]any{"cdata!": longAbstract()},
	}

	record, ok := Normalize("D204", doc, "trade")
	require.True(t, ok)
	assert.Equal(t, "D204", record.ID)
}

func TestNormalizeMissingFieldsBecomeEmptyStrings(t *testing.T) {
	doc := RawDocument{
		"id":        "D205",
		"abstracts": map[string]any{"cdata!": longAbstract()},
	}

	record, ok := Normalize("D205", doc, "trade")
	require.True(t, ok)
	assert.Empty(t, record.Title)
	assert.Empty(t, record.Country)
	assert.Empty(t, record.Keywords)
	assert.Empty(t, record.PDFURL)
}

func TestFlattenField(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"list", []any{"a", "b", "c"}, "a; b; c"},
		{"nested map sorted by key", map[string]any{"z": "last", "a": "first"}, "first; last"},
		{"list with empty entries", []any{"a", "", "b"}, "a; b"},
		{"integer number", float64(2021), "2021"},
		{"fractional number", 0.5, "0.5"},
		{"bool", true, "true"},
		{"map of lists", map[string]any{"keywd": []any{"one", "two"}}, "one; two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenField(tt.input))
		})
	}
}
