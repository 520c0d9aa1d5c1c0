package semantics

import (
	"context"
	"fmt"
	"math"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// Scorer computes the mean pairwise cosine similarity across a text's
// sentence embeddings. It implements quality.CoherenceScorer.
type Scorer struct {
	embedder Embedder
}

// NewScorer creates a Scorer on top of embedder.
func NewScorer(embedder Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Coherence embeds the sentences and returns the mean cosine similarity
// over all distinct sentence pairs. With fewer than two sentences there
// is nothing to compare; the score is 0 and the error is
// domain.ErrInsufficientSentences so callers can apply their policy.
func (s *Scorer) Coherence(ctx context.Context, sentences []string) (float64, error) {
	if len(sentences) < 2 {
		return 0, domain.ErrInsufficientSentences
	}

	vectors, err := s.embedder.Embed(ctx, sentences)
	if err != nil {
		return 0, fmt.Errorf("embedding sentences: %w", err)
	}

	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += Cosine(vectors[i], vectors[j])
			pairs++
		}
	}

	return sum / float64(pairs), nil
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
