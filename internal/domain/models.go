// Package domain contains the core types shared across the corpus pipeline:
// the flat document record, quality verdicts, and the error taxonomy.
package domain

// RecordColumns is the fixed, ordered column set of the persisted corpus.
// The header is written once per file and every writer in the pipeline
// (corpus, quality-checked output, sample) uses this same ordering.
var RecordColumns = []string{
	"id",
	"query",
	"display_title",
	"abstract",
	"language",
	"country",
	"region",
	"doc_type",
	"disclosure_date",
	"keywords",
	"theme",
	"subtopic",
	"historic_topics",
	"pdf_url",
}

// FlatRecord is one normalized document: a flat projection of the source
// API's irregular document shape onto a fixed field set. Exactly one
// FlatRecord exists per (ID, Query) pair that passed the minimum-abstract-
// length filter at ingestion. Records are append-only once written.
type FlatRecord struct {
	// ID is the source-assigned document identifier.
	ID string
	// Query is the search term that harvested this document.
	Query string
	// Title is the document display title.
	Title string
	// Abstract is the abstract text; always at least MinAbstractLength
	// characters for records produced by the normalizer.
	Abstract string
	// Language is the document language as reported by the source.
	Language string
	// Country is the document's country attribution.
	Country string
	// Region is the administrative region.
	Region string
	// DocType is the source document type.
	DocType string
	// DisclosureDate is the source disclosure date string.
	DisclosureDate string
	// Keywords is the flattened, "; "-delimited keyword list.
	Keywords string
	// Theme is the document theme.
	Theme string
	// Subtopic is the document subtopic.
	Subtopic string
	// HistoricTopics is the historic topic classification.
	HistoricTopics string
	// PDFURL is the URL of the document PDF, if any.
	PDFURL string
}

// MinAbstractLength is the minimum abstract character length for a document
// to be worth ingesting at all. Documents below it are dropped at
// normalization, before they ever reach the corpus.
const MinAbstractLength = 300

// Row returns the record's values in RecordColumns order.
func (r *FlatRecord) Row() []string {
	return []string{
		r.ID,
		r.Query,
		r.Title,
		r.Abstract,
		r.Language,
		r.Country,
		r.Region,
		r.DocType,
		r.DisclosureDate,
		r.Keywords,
		r.Theme,
		r.Subtopic,
		r.HistoricTopics,
		r.PDFURL,
	}
}

// RecordFromRow builds a FlatRecord from a CSV row in RecordColumns order.
// Returns false if the row has the wrong number of fields.
func RecordFromRow(row []string) (FlatRecord, bool) {
	if len(row) != len(RecordColumns) {
		return FlatRecord{}, false
	}
	return FlatRecord{
		ID:             row[0],
		Query:          row[1],
		Title:          row[2],
		Abstract:       row[3],
		Language:       row[4],
		Country:        row[5],
		Region:         row[6],
		DocType:        row[7],
		DisclosureDate: row[8],
		Keywords:       row[9],
		Theme:          row[10],
		Subtopic:       row[11],
		HistoricTopics: row[12],
		PDFURL:         row[13],
	}, true
}

// Check identifies one layer of the quality gate. Checks are ordered from
// cheapest to most expensive; a verdict records the first one that failed.
type Check string

// Quality gate check identifiers, in evaluation order.
const (
	CheckSentinel  Check = "sentinel"
	CheckLength    Check = "length"
	CheckStopwords Check = "stopwords"
	CheckLexical   Check = "lexical_diversity"
	CheckGrammar   Check = "grammar"
	CheckSyntax    Check = "syntax"
	CheckCoherence Check = "coherence"
)

// Signals holds the measured values that produced a quality verdict. Fields
// for checks that were never reached (short-circuit) keep their zero value.
type Signals struct {
	// Length is the trimmed character length of the abstract.
	Length int
	// Tokens is the word token count.
	Tokens int
	// StopwordRatio is the fraction of tokens that are stopwords.
	StopwordRatio float64
	// TTR is the type-token ratio (unique tokens / total tokens).
	TTR float64
	// MTLD is the measure of textual lexical diversity.
	MTLD float64
	// Sentences is the sentence count.
	Sentences int
	// AvgSentenceLen is tokens divided by sentences.
	AvgSentenceLen float64
	// Coherence is the mean pairwise sentence-embedding cosine similarity.
	// Only populated when the semantic check is enabled and reached.
	Coherence float64
}

// Verdict is the outcome of evaluating one abstract against the quality
// gate. Verdicts are derived, recomputable views; they are not part of a
// record's identity and are never persisted with it.
type Verdict struct {
	// Valid reports whether the abstract passed every enabled check.
	Valid bool
	// Failed names the first check that rejected the abstract. Empty when
	// Valid is true.
	Failed Check
	// Signals contains the measured values up to the failing check.
	Signals Signals
}
