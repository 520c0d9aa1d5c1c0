package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = "The World Bank published a report on trade. Growth remained steady across the region."

func TestTokensSplitsWords(t *testing.T) {
	analyzer := NewAnalyzer()

	tokens, err := analyzer.Tokens(sampleText)
	require.NoError(t, err)

	assert.NotEmpty(t, tokens)
	assert.Contains(t, tokens, "report")
	assert.Contains(t, tokens, "trade")
}

func TestPOSTagsAlignWithTokens(t *testing.T) {
	analyzer := NewAnalyzer()

	tokens, err := analyzer.Tokens(sampleText)
	require.NoError(t, err)
	tags, err := analyzer.POSTags(sampleText)
	require.NoError(t, err)

	assert.Len(t, tags, len(tokens))
	for _, tag := range tags {
		assert.NotEmpty(t, tag)
	}
}

func TestEntitiesRunsCleanly(t *testing.T) {
	analyzer := NewAnalyzer()

	// Entity detection quality is the library's concern; the contract
	// here is just a clean, slice-valued result.
	_, err := analyzer.Entities(sampleText)
	assert.NoError(t, err)
}

func TestSentencesSegmentsAndCounts(t *testing.T) {
	analyzer := NewAnalyzer()

	sentences, err := analyzer.Sentences(sampleText)
	require.NoError(t, err)

	require.Len(t, sentences, 2)
	for _, s := range sentences {
		assert.NotEmpty(t, s.Text)
		assert.Greater(t, s.Tokens, 0)
	}
}

func TestStopwordLexicon(t *testing.T) {
	lexicon := NewStopwordLexicon()

	assert.True(t, lexicon.IsStop("the"))
	assert.True(t, lexicon.IsStop("of"))
	assert.True(t, lexicon.IsStop("wouldn't"))
	assert.False(t, lexicon.IsStop("economy"))
	assert.False(t, lexicon.IsStop("infrastructure"))

	// Callers are expected to lowercase first.
	assert.False(t, lexicon.IsStop("The"))
}
