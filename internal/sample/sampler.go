// Package sample draws a stratified, reproducible sample from the corpus:
// equal representation per query group so over-represented queries cannot
// dominate downstream analysis.
package sample

import (
	"math"
	"math/rand"
	"sort"

	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// KeyFunc extracts the stratification key from a record.
type KeyFunc func(record domain.FlatRecord) string

// ByQuery stratifies by the record's originating query term.
func ByQuery(record domain.FlatRecord) string {
	return record.Query
}

// Config holds sampler settings.
type Config struct {
	// OutlierQuantile drops groups whose size falls below this quantile
	// of all group sizes before the per-group draw size is computed, so
	// one pathologically small group cannot collapse the sample size for
	// everyone. 0 disables the cutoff.
	OutlierQuantile float64

	// MaxPerGroup caps the per-group draw size. 0 disables the cap.
	MaxPerGroup int

	// Key extracts the stratification key. Defaults to ByQuery.
	Key KeyFunc
}

// Sampler draws equal-size, deterministic per-group samples.
type Sampler struct {
	cfg Config
}

// New creates a Sampler.
func New(cfg Config) *Sampler {
	if cfg.Key == nil {
		cfg.Key = ByQuery
	}
	return &Sampler{cfg: cfg}
}

// Sample partitions records by key, drops outlier groups, and draws the
// minimum surviving group size from every surviving group without
// replacement. Identical records and seed always produce an identical
// sample, in identical order: groups are visited in sorted key order and
// all randomness comes from a seeded source.
func (s *Sampler) Sample(records []domain.FlatRecord, seed int64) ([]domain.FlatRecord, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	groups := make(map[string][]domain.FlatRecord)
	for _, r := range records {
		key := s.cfg.Key(r)
		groups[key] = append(groups[key], r)
	}

	keys := make([]string, 0, len(groups))
	sizes := make([]int, 0, len(groups))
	for key, group := range groups {
		keys = append(keys, key)
		sizes = append(sizes, len(group))
	}
	sort.Strings(keys)

	// Outlier cutoff on group sizes, then the equal per-group draw size
	// is the minimum size across the groups that survive.
	cutoff := 0.0
	if s.cfg.OutlierQuantile > 0 {
		cutoff = quantile(sizes, s.cfg.OutlierQuantile)
	}

	surviving := make([]string, 0, len(keys))
	drawSize := math.MaxInt
	for _, key := range keys {
		size := len(groups[key])
		if float64(size) < cutoff {
			continue
		}
		surviving = append(surviving, key)
		if size < drawSize {
			drawSize = size
		}
	}
	if len(surviving) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if s.cfg.MaxPerGroup > 0 && drawSize > s.cfg.MaxPerGroup {
		drawSize = s.cfg.MaxPerGroup
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]domain.FlatRecord, 0, drawSize*len(surviving))
	for _, key := range surviving {
		group := groups[key]
		perm := rng.Perm(len(group))[:drawSize]
		sort.Ints(perm)
		for _, idx := range perm {
			out = append(out, group[idx])
		}
	}

	return out, nil
}

// quantile returns the linearly interpolated q-quantile of values.
func quantile(values []int, q float64) float64 {
	sorted := append([]int{}, values...)
	sort.Ints(sorted)

	if len(sorted) == 1 {
		return float64(sorted[0])
	}

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	frac := pos - float64(lower)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	return float64(sorted[lower]) + frac*float64(sorted[lower+1]-sorted[lower])
}
