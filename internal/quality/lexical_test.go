package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTTR(t *testing.T) {
	assert.Equal(t, 0.0, TTR(nil))
	assert.Equal(t, 1.0, TTR([]string{"a", "b", "c"}))
	assert.Equal(t, 0.5, TTR([]string{"a", "b", "a", "b"}))
	assert.Equal(t, 0.25, TTR([]string{"a", "a", "a", "a"}))
}

func TestMTLDEmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, MTLD(nil))
}

func TestMTLDAllDistinctTokensScoresLength(t *testing.T) {
	tokens := strings.Fields("one two three four five six seven eight nine ten")
	assert.Equal(t, 10.0, MTLD(tokens))
}

func TestMTLDRepetitiveTextScoresLow(t *testing.T) {
	repeated := make([]string, 10)
	for i := range repeated {
		repeated[i] = "same"
	}

	// Each pair of identical tokens completes one factor: the running
	// ratio drops to 0.5 on the second token of every segment.
	assert.InDelta(t, 2.0, MTLD(repeated), 0.01)
}

func TestMTLDRanksDiversityCorrectly(t *testing.T) {
	diverse := strings.Fields("the committee reviewed fiscal outcomes across provinces during austerity and proposed structural reforms")
	repetitive := strings.Fields("data data data report data data report data data data report data")

	assert.Greater(t, MTLD(diverse), MTLD(repetitive))
}

func TestStopwordRatio(t *testing.T) {
	isStop := func(w string) bool { return w == "the" || w == "of" }

	assert.Equal(t, 0.0, StopwordRatio(nil, isStop))
	assert.Equal(t, 0.5, StopwordRatio([]string{"the", "bank", "of", "ghana"}, isStop))
	assert.Equal(t, 1.0, StopwordRatio([]string{"the", "of"}, isStop))
	assert.Equal(t, 0.0, StopwordRatio([]string{"bank", "ghana"}, isStop))
}
