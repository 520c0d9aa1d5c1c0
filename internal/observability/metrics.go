package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the corpus pipeline.
// Metrics are organized by stage: harvesting, normalization, quality
// gating, and sampling. All counters and histograms are registered via
// promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// PagesFetched counts pages successfully fetched from the source API.
	PagesFetched prometheus.Counter

	// FetchRetries counts transport-level retry attempts during page fetches.
	FetchRetries prometheus.Counter

	// FetchFailures counts page fetches that failed, labeled by error kind
	// ("transport_exhausted", "response").
	FetchFailures *prometheus.CounterVec

	// FetchDuration observes page fetch duration in seconds.
	FetchDuration prometheus.Histogram

	// DocumentsHarvested counts raw documents merged into a harvest accumulator.
	DocumentsHarvested prometheus.Counter

	// DocumentsNormalized counts documents flattened into corpus records.
	DocumentsNormalized prometheus.Counter

	// DocumentsDropped counts documents dropped at normalization for a
	// missing or too-short abstract.
	DocumentsDropped prometheus.Counter

	// QueriesCompleted counts queries harvested, persisted, and marked
	// complete in the ledger.
	QueriesCompleted prometheus.Counter

	// QueriesSkipped counts queries skipped because the ledger already
	// recorded them as complete.
	QueriesSkipped prometheus.Counter

	// QueriesFailed counts queries whose harvest aborted, labeled by reason.
	QueriesFailed *prometheus.CounterVec

	// HarvestStops counts harvest loop terminations, labeled by stop state
	// ("empty_page", "stagnant", "loop_detected", "budget_reached").
	HarvestStops *prometheus.CounterVec

	// RecordsPerQuery observes the distribution of record counts per
	// completed query.
	RecordsPerQuery prometheus.Histogram

	// AbstractsChecked counts abstracts evaluated by the quality gate.
	AbstractsChecked prometheus.Counter

	// AbstractsRejected counts abstracts rejected, labeled by the failing check.
	AbstractsRejected *prometheus.CounterVec

	// AbstractsAccepted counts abstracts that passed every enabled check.
	AbstractsAccepted prometheus.Counter

	// SampledRecords counts records drawn into the stratified sample.
	SampledRecords prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Total number of result pages fetched from the source API",
		}),
		FetchRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Total number of transport-level retry attempts",
		}),
		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Total number of failed page fetches by error kind",
		}, []string{"kind"}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Page fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DocumentsHarvested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_harvested_total",
			Help:      "Total number of raw documents merged into harvest accumulators",
		}),
		DocumentsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_normalized_total",
			Help:      "Total number of documents flattened into corpus records",
		}),
		DocumentsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_dropped_total",
			Help:      "Total number of documents dropped for missing or short abstracts",
		}),
		QueriesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_completed_total",
			Help:      "Total number of queries harvested and marked complete",
		}),
		QueriesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_skipped_total",
			Help:      "Total number of queries skipped via the ledger",
		}),
		QueriesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_failed_total",
			Help:      "Total number of queries whose harvest aborted, by reason",
		}, []string{"reason"}),
		HarvestStops: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "harvest_stops_total",
			Help:      "Total number of harvest loop terminations by stop state",
		}, []string{"state"}),
		RecordsPerQuery: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_per_query",
			Help:      "Distribution of corpus records produced per completed query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		AbstractsChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_checked_total",
			Help:      "Total number of abstracts evaluated by the quality gate",
		}),
		AbstractsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_rejected_total",
			Help:      "Total number of abstracts rejected, by failing check",
		}, []string{"check"}),
		AbstractsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_accepted_total",
			Help:      "Total number of abstracts that passed the quality gate",
		}),
		SampledRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampled_records_total",
			Help:      "Total number of records drawn into the stratified sample",
		}),
	}
}
