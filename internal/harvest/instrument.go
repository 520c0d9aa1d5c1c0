package harvest

import (
	"context"
	"errors"
	"time"

	"github.com/openknowledge-labs/docharvest/internal/docsource/wds"
	"github.com/openknowledge-labs/docharvest/internal/domain"
	"github.com/openknowledge-labs/docharvest/internal/observability"
)

// InstrumentedFetcher wraps a PageFetcher with fetch metrics.
type InstrumentedFetcher struct {
	Fetcher PageFetcher
	Metrics *observability.Metrics
}

// Compile-time check that InstrumentedFetcher implements PageFetcher.
var _ PageFetcher = (*InstrumentedFetcher)(nil)

// FetchPage implements PageFetcher.
func (f *InstrumentedFetcher) FetchPage(ctx context.Context, query string, offset, pageSize int) (*wds.Page, error) {
	start := time.Now()
	page, err := f.Fetcher.FetchPage(ctx, query, offset, pageSize)
	if f.Metrics == nil {
		return page, err
	}

	f.Metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransportExhausted):
			f.Metrics.FetchFailures.WithLabelValues("transport_exhausted").Inc()
		case errors.Is(err, domain.ErrBadResponse):
			f.Metrics.FetchFailures.WithLabelValues("response").Inc()
		}
		return nil, err
	}

	f.Metrics.PagesFetched.Inc()
	return page, nil
}
