package harvest

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/openknowledge-labs/docharvest/internal/docsource/wds"
	"github.com/openknowledge-labs/docharvest/internal/domain"
	"github.com/openknowledge-labs/docharvest/internal/observability"
)

// CorpusWriter appends normalized records to the persisted corpus.
type CorpusWriter interface {
	Append(records []domain.FlatRecord) error
}

// RawArchiver stores a query's raw harvested documents.
type RawArchiver interface {
	Archive(query string, docs map[string]wds.RawDocument) error
}

// Runner executes the harvest job across a list of queries. Per-query
// failures are isolated: a failed query is logged, left out of the ledger,
// and retried naturally on the next full run, while the job proceeds to
// the remaining queries.
type Runner struct {
	harvester *Harvester
	ledger    Ledger
	store     CorpusWriter
	archive   RawArchiver
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewRunner creates a Runner. archive and metrics may be nil.
func NewRunner(harvester *Harvester, ledger Ledger, store CorpusWriter, archive RawArchiver, metrics *observability.Metrics, logger zerolog.Logger) *Runner {
	return &Runner{
		harvester: harvester,
		ledger:    ledger,
		store:     store,
		archive:   archive,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run harvests every query not already recorded as complete. Queries are
// processed strictly sequentially; the only error returned is context
// cancellation, everything else is contained to its query.
func (r *Runner) Run(ctx context.Context, queries []string) error {
	total := len(queries)
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger := observability.WithQueryContext(r.logger, query, i+1, total)

		if r.ledger.IsComplete(query) {
			logger.Info().Msg("query already complete, skipping")
			if r.metrics != nil {
				r.metrics.QueriesSkipped.Inc()
			}
			continue
		}

		logger.Info().Msg("harvesting query")
		result, err := r.harvester.Harvest(ctx, query)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.recordFailure(logger, err)
			continue
		}

		if err := r.persist(query, result); err != nil {
			// Persistence failed, so the query stays unmarked and will
			// be re-harvested on the next run.
			r.recordFailure(logger, err)
			continue
		}

		if err := r.ledger.MarkComplete(query); err != nil {
			r.recordFailure(logger, err)
			continue
		}

		if r.metrics != nil {
			r.metrics.QueriesCompleted.Inc()
			r.metrics.HarvestStops.WithLabelValues(result.Stop.String()).Inc()
			r.metrics.DocumentsHarvested.Add(float64(len(result.Raw)))
			r.metrics.DocumentsNormalized.Add(float64(len(result.Records)))
			r.metrics.DocumentsDropped.Add(float64(result.Dropped))
			r.metrics.RecordsPerQuery.Observe(float64(len(result.Records)))
		}
		logger.Info().
			Int("records", len(result.Records)).
			Msg("query complete")
	}

	return nil
}

// persist writes the raw archive entry and corpus rows for one query.
// Archive first: the corpus append is the step whose success gates the
// ledger mark.
func (r *Runner) persist(query string, result *Result) error {
	if r.archive != nil {
		if err := r.archive.Archive(query, result.Raw); err != nil {
			return err
		}
	}
	return r.store.Append(result.Records)
}

// recordFailure logs one query's failure and updates failure metrics.
func (r *Runner) recordFailure(logger zerolog.Logger, err error) {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrTransportExhausted):
		reason = "transport_exhausted"
	case errors.Is(err, domain.ErrBadResponse):
		reason = "response"
	}
	logger.Error().Err(err).Str("reason", reason).Msg("query harvest failed")
	if r.metrics != nil {
		r.metrics.QueriesFailed.WithLabelValues(reason).Inc()
	}
}
