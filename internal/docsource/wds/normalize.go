package wds

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// fieldSeparator joins flattened multi-valued fields.
const fieldSeparator = "; "

// abstractCDATAKey is the key under "abstracts" that carries the abstract
// body text.
const abstractCDATAKey = "cdata!"

// Normalize flattens one raw API document into a FlatRecord for query.
//
// It returns ok=false when the document has no abstract or the abstract is
// shorter than domain.MinAbstractLength characters; such documents are not
// worth ingesting at all. Every nested or multi-valued source field is
// flattened to a single delimited string through flattenField, and missing
// fields become empty strings, never null markers, so downstream tabular
// consumers stay uniform.
//
// The id argument is the key the document was stored under in the response
// and is used when the body carries no id of its own.
func Normalize(id string, doc RawDocument, query string) (*domain.FlatRecord, bool) {
	// Counted in runes to match the length check applied downstream.
	abstract := abstractText(doc)
	if utf8.RuneCountInString(abstract) < domain.MinAbstractLength {
		return nil, false
	}

	record := &domain.FlatRecord{
		ID:             stringField(doc, "id"),
		Query:          query,
		Title:          stringField(doc, "display_title"),
		Abstract:       abstract,
		Language:       stringField(doc, "lang"),
		Country:        stringField(doc, "count"),
		Region:         stringField(doc, "admreg"),
		DocType:        stringField(doc, "docty"),
		DisclosureDate: stringField(doc, "disclosure_date"),
		Keywords:       stringField(doc, "keywd"),
		Theme:          stringField(doc, "theme"),
		Subtopic:       stringField(doc, "subtopic"),
		HistoricTopics: stringField(doc, "historic_topic"),
		PDFURL:         stringField(doc, "pdfurl"),
	}
	if record.ID == "" {
		record.ID = id
	}

	return record, true
}

// abstractText extracts the abstract body from the nested abstracts field.
func abstractText(doc RawDocument) string {
	nested, ok := doc["abstracts"].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := nested[abstractCDATAKey].(string)
	return text
}

// stringField flattens the named field to a string, or "" when absent.
func stringField(doc RawDocument, key string) string {
	v, ok := doc[key]
	if !ok {
		return ""
	}
	return flattenField(v)
}

// flattenField collapses an arbitrarily shaped source field into one
// delimited string. The source mixes plain strings, lists, and keyed
// objects per field from one document to the next, so a single generic
// flattening path keeps new source fields from needing new code.
func flattenField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := flattenField(val[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, fieldSeparator)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := flattenField(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, fieldSeparator)
	case float64:
		// JSON numbers decode as float64; render integers without a
		// fractional part.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
