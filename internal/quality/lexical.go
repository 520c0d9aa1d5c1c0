// Package quality implements the layered abstract quality gate: cheap
// lexical checks first, then grammatical and syntactic shape, and finally
// optional semantic coherence, with the first failing check rejecting
// immediately.
package quality

// mtldFactorThreshold is the type-token ratio at which one MTLD factor is
// considered complete. 0.72 is the value from McCarthy & Jarvis (2010) and
// is what reference implementations use.
const mtldFactorThreshold = 0.72

// TTR returns the type-token ratio of tokens: unique tokens divided by
// total tokens. Returns 0 for empty input.
func TTR(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	types := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		types[t] = struct{}{}
	}
	return float64(len(types)) / float64(len(tokens))
}

// MTLD returns the measure of textual lexical diversity: the mean number
// of tokens a reader covers before the running type-token ratio drops
// below the factor threshold. Unlike raw TTR it is robust to text length.
// The score is the average of a forward and a backward pass.
func MTLD(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	forward := mtldPass(tokens)
	reversed := make([]string, len(tokens))
	for i, t := range tokens {
		reversed[len(tokens)-1-i] = t
	}
	backward := mtldPass(reversed)

	return (forward + backward) / 2
}

// mtldPass computes one directional MTLD value.
func mtldPass(tokens []string) float64 {
	factors := 0.0
	types := make(map[string]struct{})
	count := 0

	for _, t := range tokens {
		count++
		types[t] = struct{}{}
		ttr := float64(len(types)) / float64(count)
		if ttr <= mtldFactorThreshold {
			factors++
			types = make(map[string]struct{})
			count = 0
		}
	}

	// Partial factor for the trailing segment.
	if count > 0 {
		ttr := float64(len(types)) / float64(count)
		factors += (1 - ttr) / (1 - mtldFactorThreshold)
	}

	if factors == 0 {
		// Every token distinct and below one full factor; the text is as
		// diverse as its length allows.
		return float64(len(tokens))
	}

	return float64(len(tokens)) / factors
}

// StopwordRatio returns the fraction of tokens for which isStop is true.
// Returns 0 for empty input.
func StopwordRatio(tokens []string, isStop func(string) bool) float64 {
	if len(tokens) == 0 {
		return 0
	}
	count := 0
	for _, t := range tokens {
		if isStop(t) {
			count++
		}
	}
	return float64(count) / float64(len(tokens))
}
