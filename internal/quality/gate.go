package quality

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// sentinelTexts are placeholder strings sources use in lieu of a real
// abstract, compared case-insensitively against the trimmed text.
var sentinelTexts = map[string]struct{}{
	"n/a":                    {},
	"abstract not available": {},
	"not available":          {},
}

// coherenceMinTokens is the sentence token count above which a sentence
// qualifies for the coherence check; shorter fragments carry too little
// signal to embed.
const coherenceMinTokens = 3

// Sentence is one segmented sentence with its token count.
type Sentence struct {
	Text   string
	Tokens int
}

// Analyzer supplies the NLP primitives the gate consumes as black boxes:
// tokenization, part-of-speech tagging, named-entity extraction, and
// sentence segmentation.
type Analyzer interface {
	// Tokens returns the word tokens of text, in order.
	Tokens(text string) ([]string, error)

	// POSTags returns one Penn Treebank tag per token of text.
	POSTags(text string) ([]string, error)

	// Entities returns the named-entity mentions detected in text.
	Entities(text string) ([]string, error)

	// Sentences segments text into sentences.
	Sentences(text string) ([]Sentence, error)
}

// Lexicon answers stopword membership for lowercased word tokens.
type Lexicon interface {
	IsStop(word string) bool
}

// CoherenceScorer scores how semantically related a text's sentences are
// to one another. Implementations return domain.ErrInsufficientSentences
// when fewer than two sentences are available to compare.
type CoherenceScorer interface {
	Coherence(ctx context.Context, sentences []string) (float64, error)
}

// Options holds the gate's thresholds. All of them are configuration, not
// constants.
type Options struct {
	// TTRThreshold is the type-token ratio floor.
	TTRThreshold float64
	// MTLDThreshold is the MTLD floor. A text is only rejected for
	// lexical diversity when it falls below BOTH floors; the two metrics
	// capture complementary aspects of vocabulary richness and disagree
	// on short or technical text.
	MTLDThreshold float64
	// StopwordThreshold is the maximum allowed stopword ratio.
	StopwordThreshold float64
	// MinSentences is the minimum sentence count.
	MinSentences int
	// MinCoherence is the minimum mean sentence-embedding similarity.
	MinCoherence float64
	// CheckSemantics enables the semantic coherence check. It is the
	// most expensive check and always runs last.
	CheckSemantics bool
}

// DefaultOptions returns the gate's standard thresholds.
func DefaultOptions() Options {
	return Options{
		TTRThreshold:      0.4,
		MTLDThreshold:     20,
		StopwordThreshold: 0.6,
		MinSentences:      2,
		MinCoherence:      0.5,
		CheckSemantics:    false,
	}
}

// Gate decides whether an abstract is substantive enough to keep. Checks
// run as a short-circuiting conjunction ordered from cheapest to most
// expensive, so most rejects never pay for tagging or embedding.
type Gate struct {
	analyzer Analyzer
	lexicon  Lexicon
	scorer   CoherenceScorer
	opts     Options
}

// NewGate creates a Gate. scorer may be nil when Options.CheckSemantics
// is false.
func NewGate(analyzer Analyzer, lexicon Lexicon, scorer CoherenceScorer, opts Options) *Gate {
	return &Gate{
		analyzer: analyzer,
		lexicon:  lexicon,
		scorer:   scorer,
		opts:     opts,
	}
}

// IsValid reports whether text passes every enabled check.
func (g *Gate) IsValid(ctx context.Context, text string) (bool, error) {
	verdict, err := g.Evaluate(ctx, text)
	if err != nil {
		return false, err
	}
	return verdict.Valid, nil
}

// Evaluate runs the layered checks against text and returns the verdict
// with the signal values measured up to the first failing check. The only
// errors returned are analyzer or scorer failures; a rejection is not an
// error.
func (g *Gate) Evaluate(ctx context.Context, text string) (domain.Verdict, error) {
	verdict := domain.Verdict{}

	// 1. Sentinel placeholders.
	trimmed := strings.TrimSpace(text)
	if _, sentinel := sentinelTexts[strings.ToLower(trimmed)]; sentinel {
		return reject(verdict, domain.CheckSentinel), nil
	}

	// 2. Length.
	verdict.Signals.Length = utf8.RuneCountInString(trimmed)
	if verdict.Signals.Length < domain.MinAbstractLength {
		return reject(verdict, domain.CheckLength), nil
	}

	// 3. Stopword ratio.
	tokens, err := g.analyzer.Tokens(strings.ToLower(trimmed))
	if err != nil {
		return verdict, err
	}
	verdict.Signals.Tokens = len(tokens)
	if len(tokens) == 0 {
		return reject(verdict, domain.CheckStopwords), nil
	}
	verdict.Signals.StopwordRatio = StopwordRatio(tokens, g.lexicon.IsStop)
	if verdict.Signals.StopwordRatio >= g.opts.StopwordThreshold {
		return reject(verdict, domain.CheckStopwords), nil
	}

	// 4. Lexical diversity: both metrics must fall short to reject.
	verdict.Signals.TTR = TTR(tokens)
	verdict.Signals.MTLD = MTLD(tokens)
	if verdict.Signals.TTR < g.opts.TTRThreshold && verdict.Signals.MTLD < g.opts.MTLDThreshold {
		return reject(verdict, domain.CheckLexical), nil
	}

	// 5. Grammatical substance: a noun, a verb, and at least one named
	// entity; boilerplate and fragment text lacks propositional content.
	tags, err := g.analyzer.POSTags(trimmed)
	if err != nil {
		return verdict, err
	}
	hasNoun, hasVerb := false, false
	for _, tag := range tags {
		if strings.HasPrefix(tag, "NN") {
			hasNoun = true
		}
		if strings.HasPrefix(tag, "VB") {
			hasVerb = true
		}
	}
	if !hasNoun || !hasVerb {
		return reject(verdict, domain.CheckGrammar), nil
	}
	entities, err := g.analyzer.Entities(trimmed)
	if err != nil {
		return verdict, err
	}
	if len(entities) == 0 {
		return reject(verdict, domain.CheckGrammar), nil
	}

	// 6. Syntactic shape.
	sentences, err := g.analyzer.Sentences(trimmed)
	if err != nil {
		return verdict, err
	}
	verdict.Signals.Sentences = len(sentences)
	if len(sentences) < g.opts.MinSentences {
		return reject(verdict, domain.CheckSyntax), nil
	}
	totalTokens := 0
	for _, s := range sentences {
		totalTokens += s.Tokens
	}
	verdict.Signals.AvgSentenceLen = float64(totalTokens) / float64(len(sentences))
	if !(verdict.Signals.AvgSentenceLen > 5 && verdict.Signals.AvgSentenceLen < 40) {
		return reject(verdict, domain.CheckSyntax), nil
	}

	// 7. Semantic coherence, last because embedding is costly.
	if g.opts.CheckSemantics && g.scorer != nil {
		qualifying := make([]string, 0, len(sentences))
		for _, s := range sentences {
			if s.Tokens > coherenceMinTokens {
				qualifying = append(qualifying, s.Text)
			}
		}
		score, err := g.scorer.Coherence(ctx, qualifying)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientSentences) {
				// Too little to test scores 0, which rejects by policy.
				verdict.Signals.Coherence = 0
				return reject(verdict, domain.CheckCoherence), nil
			}
			return verdict, err
		}
		verdict.Signals.Coherence = score
		if score < g.opts.MinCoherence {
			return reject(verdict, domain.CheckCoherence), nil
		}
	}

	verdict.Valid = true
	return verdict, nil
}

// reject marks the verdict failed at check.
func reject(verdict domain.Verdict, check domain.Check) domain.Verdict {
	verdict.Valid = false
	verdict.Failed = check
	return verdict
}
