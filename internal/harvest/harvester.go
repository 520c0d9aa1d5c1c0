// Package harvest drives resilient, resumable harvesting of paginated
// search results: a state-machine page loop per query, a persisted ledger
// of completed queries, and a runner that isolates per-query failures.
package harvest

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/openknowledge-labs/docharvest/internal/docsource"
	"github.com/openknowledge-labs/docharvest/internal/docsource/wds"
	"github.com/openknowledge-labs/docharvest/internal/domain"
)

// State is the harvest loop's position in its termination state machine.
// Transitions are single-direction: a harvest starts in StateFetching and
// moves to exactly one terminal state.
type State int

const (
	// StateFetching is the only non-terminal state: pages are still
	// being requested.
	StateFetching State = iota
	// StateDone means the source returned an empty page.
	StateDone
	// StateStagnant means a page contributed no previously-unseen
	// documents even though the source nominally reports more results.
	StateStagnant
	// StateLoopDetected means the computed next offset equals the offset
	// already used in the previous iteration, which would spin forever
	// against a source that echoes stale offsets.
	StateLoopDetected
	// StateBudgetReached means the accumulator hit the record budget.
	StateBudgetReached
)

// String returns the state name used in logs and metric labels.
func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateDone:
		return "empty_page"
	case StateStagnant:
		return "stagnant"
	case StateLoopDetected:
		return "loop_detected"
	case StateBudgetReached:
		return "budget_reached"
	default:
		return "unknown"
	}
}

// terminal reports whether the state ends the harvest loop.
func (s State) terminal() bool {
	return s != StateFetching
}

// PageFetcher issues one bounded, retried network request per page.
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, offset, pageSize int) (*wds.Page, error)
}

// Normalizer maps one raw document into a flat record, or reports false
// when the document should be dropped.
type Normalizer func(id string, doc wds.RawDocument, query string) (*domain.FlatRecord, bool)

// Result is the outcome of one completed harvest.
type Result struct {
	// Records are the normalized flat records, ordered by document id.
	Records []domain.FlatRecord
	// Raw is the full raw accumulator, including documents the
	// normalizer dropped. Used by the raw archive.
	Raw map[string]wds.RawDocument
	// Stop is the terminal state that ended the loop.
	Stop State
	// Pages is the number of pages fetched.
	Pages int
	// Dropped is the number of raw documents the normalizer rejected.
	Dropped int
}

// HarvesterConfig holds harvest loop settings.
type HarvesterConfig struct {
	// PageSize is the number of rows requested per page. Must be positive.
	PageSize int

	// MaxRecords is the per-query record budget. Must be positive.
	MaxRecords int

	// CourtesyDelay is the unconditional pause between page requests.
	// It respects the source's implicit rate limits and is not an
	// error-recovery mechanism.
	CourtesyDelay time.Duration
}

// Harvester accumulates the full result set for one query at a time. A
// Harvester owns no shared state across queries; the accumulator lives
// entirely inside one Harvest call.
type Harvester struct {
	fetcher   PageFetcher
	normalize Normalizer
	pacer     *docsource.RateLimiter
	cfg       HarvesterConfig
	logger    zerolog.Logger
}

// NewHarvester creates a Harvester.
func NewHarvester(fetcher PageFetcher, normalize Normalizer, cfg HarvesterConfig, logger zerolog.Logger) *Harvester {
	pacer := docsource.NewIntervalLimiter(cfg.CourtesyDelay.Seconds())
	if cfg.CourtesyDelay > 0 {
		// Drain the initial token so the first pause after a page is a
		// real pause, not a free pass through a full bucket.
		pacer.Allow()
	}
	return &Harvester{
		fetcher:   fetcher,
		normalize: normalize,
		pacer:     pacer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Harvest drives the page loop for one query until a terminal state.
//
// Each iteration fetches the page at the current offset, merges its
// documents into the accumulator keyed by identifier (duplicates across
// pages are absorbed idempotently), and advances the offset by the page
// size. The loop terminates on an empty page, stagnation, the loop-guard,
// or the record budget; the iteration count is therefore bounded by
// maxRecords/pageSize + 1.
//
// A fetch error aborts the harvest for this query entirely and the partial
// accumulation is discarded: an incomplete harvest must never masquerade
// as complete downstream.
func (h *Harvester) Harvest(ctx context.Context, query string) (*Result, error) {
	if h.cfg.PageSize <= 0 {
		return nil, domain.NewValidationError("page_size", "must be positive")
	}
	if h.cfg.MaxRecords <= 0 {
		return nil, domain.NewValidationError("max_records", "must be positive")
	}

	logger := h.logger.With().Str("query", query).Logger()

	acc := make(map[string]wds.RawDocument)
	state := StateFetching
	offset := 0
	previousOffset := -1
	pages := 0

	for state == StateFetching {
		// The offset bound caps the iteration count at
		// maxRecords/pageSize + 1 even when pages overlap heavily and the
		// accumulator grows slower than the offset.
		if len(acc) >= h.cfg.MaxRecords || offset >= h.cfg.MaxRecords {
			state = StateBudgetReached
			break
		}
		if offset == previousOffset {
			state = StateLoopDetected
			break
		}

		page, err := h.fetcher.FetchPage(ctx, query, offset, h.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		pages++

		if len(page.Documents) == 0 {
			state = StateDone
			break
		}

		before := len(acc)
		for id, doc := range page.Documents {
			acc[id] = doc
		}
		if len(acc) == before {
			state = StateStagnant
			break
		}

		logger.Debug().
			Int("offset", offset).
			Int("page_documents", len(page.Documents)).
			Int("accumulated", len(acc)).
			Float64("budget_pct", 100*float64(len(acc))/float64(h.cfg.MaxRecords)).
			Msg("page merged")

		previousOffset = offset
		offset = page.Offset + h.cfg.PageSize

		// Courtesy pause on every successful page, unconditionally.
		if err := h.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if !state.terminal() {
		state = StateBudgetReached
	}

	result := &Result{
		Raw:   acc,
		Stop:  state,
		Pages: pages,
	}

	// Normalize in identifier order so re-running a harvest over a stable
	// result set yields an identical record sequence.
	ids := make([]string, 0, len(acc))
	for id := range acc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result.Records = make([]domain.FlatRecord, 0, len(ids))
	for _, id := range ids {
		record, ok := h.normalize(id, acc[id], query)
		if !ok {
			result.Dropped++
			continue
		}
		result.Records = append(result.Records, *record)
	}

	logger.Info().
		Str("stop_state", state.String()).
		Int("pages", pages).
		Int("raw_documents", len(acc)).
		Int("records", len(result.Records)).
		Int("dropped", result.Dropped).
		Msg("harvest finished")

	return result, nil
}
