// Package observability provides logging and metrics support for the
// corpus pipeline.
//
// Logging is built on zerolog and configured through LoggingConfig; the
// With*Context helpers attach the pipeline's common fields (query term,
// record id, stage) so that log lines from one harvest run can be
// correlated. Metrics are Prometheus counters and histograms registered via
// promauto and exposed by the job entrypoints on a dedicated port.
package observability
