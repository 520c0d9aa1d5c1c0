// Package nlp provides the default text-analysis backend for the quality
// gate, built on the prose library: tokenization, Penn Treebank POS
// tagging, named-entity extraction, and sentence segmentation.
package nlp

import (
	"fmt"

	prose "github.com/jdkato/prose/v2"

	"github.com/openknowledge-labs/docharvest/internal/quality"
)

// Analyzer implements quality.Analyzer on top of prose. It holds no state;
// each call builds a document with only the pipeline stages it needs, so
// cheap calls (tokenization) never pay for tagging or entity extraction.
type Analyzer struct{}

// Compile-time check that Analyzer implements quality.Analyzer.
var _ quality.Analyzer = (*Analyzer)(nil)

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Tokens returns the word tokens of text, in order. Punctuation runs
// tokenize as their own tokens, matching the behavior the gate's ratio
// thresholds were tuned against.
func (a *Analyzer) Tokens(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}

	tokens := doc.Tokens()
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out, nil
}

// POSTags returns one Penn Treebank tag per token of text.
func (a *Analyzer) POSTags(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tagging: %w", err)
	}

	tokens := doc.Tokens()
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Tag
	}
	return out, nil
}

// Entities returns the named-entity mentions detected in text.
func (a *Analyzer) Entities(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("extracting entities: %w", err)
	}

	entities := doc.Entities()
	out := make([]string, len(entities))
	for i, ent := range entities {
		out[i] = ent.Text
	}
	return out, nil
}

// Sentences segments text into sentences with their token counts.
func (a *Analyzer) Sentences(text string) ([]quality.Sentence, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("segmenting: %w", err)
	}

	sentences := doc.Sentences()
	out := make([]quality.Sentence, 0, len(sentences))
	for _, sent := range sentences {
		tokens, err := a.Tokens(sent.Text)
		if err != nil {
			return nil, err
		}
		out = append(out, quality.Sentence{Text: sent.Text, Tokens: len(tokens)})
	}
	return out, nil
}
