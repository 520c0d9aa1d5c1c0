// Package wds provides a client for the World Bank Documents & Reports
// search API.
//
// The API pages results through `rows` and `os` (offset) parameters and
// returns documents as a JSON object keyed by source-assigned identifier,
// alongside a non-document "facets" entry that callers must ignore.
//
// API documentation: https://documents.worldbank.org/en/publication/documents-reports/api
package wds

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// facetsKey is the non-document metadata entry embedded in the documents
// object of every response.
const facetsKey = "facets"

// RawDocument is the API's native representation of one result: an
// irregular mapping with nested and optional fields. It exists only
// transiently inside one page-fetch cycle and is read-only.
type RawDocument map[string]any

// FlexInt decodes JSON numbers that the API sometimes serializes as
// strings (e.g. "total": "1234").
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing %q as int: %w", s, err)
	}
	*f = FlexInt(n)
	return nil
}

// searchResponse is the top-level response from the search endpoint.
type searchResponse struct {
	Total     FlexInt                    `json:"total"`
	Rows      FlexInt                    `json:"rows"`
	OS        FlexInt                    `json:"os"`
	Documents map[string]json.RawMessage `json:"documents"`
}

// Page is one decoded result page with the facets entry stripped out.
type Page struct {
	// Documents maps source-assigned identifiers to raw document bodies.
	Documents map[string]RawDocument

	// Total is the source-reported total result count for the query.
	Total int

	// Offset is the offset the source reports this page was served at.
	// A source that echoes a stale offset instead of honoring pagination
	// is caught by the harvester's loop-guard through this field.
	Offset int
}
