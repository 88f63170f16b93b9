// Package ingestor refreshes price history for the configured pairs: it pulls
// candles through the collector, normalizes them and stores the result,
// retrying transient exchange errors with backoff.
package ingestor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/coinlens/internal/domain"
	"github.com/vadiminshakov/coinlens/internal/services/collector"
	"github.com/vadiminshakov/coinlens/pkg/retrier"
)

// maxConcurrentFetches bounds parallel exchange requests during a refresh.
const maxConcurrentFetches = 5

// SeriesStore persists normalized price history.
type SeriesStore interface {
	Save(series domain.PriceSeries) error
}

// Ingestor periodically refreshes the history of every configured pair.
type Ingestor struct {
	collector *collector.Collector
	store     SeriesStore
	pairs     []domain.Pair
	interval  time.Duration
	retrier   *retrier.Retrier
	logger    *zap.Logger
}

// New creates an ingestor refreshing the given pairs every interval.
func New(c *collector.Collector, store SeriesStore, pairs []domain.Pair, interval time.Duration, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		collector: c,
		store:     store,
		pairs:     pairs,
		interval:  interval,
		retrier: retrier.New(
			retrier.WithInitialInterval(2*time.Second),
			retrier.WithMaxRetries(3),
		),
		logger: logger,
	}
}

// RefreshAll fetches and stores fresh history for every pair, bounded to a
// few pairs in flight at once. A pair that keeps failing after retries fails
// the whole refresh.
func (i *Ingestor) RefreshAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, pair := range i.pairs {
		g.Go(func() error {
			return i.refreshPair(gctx, pair)
		})
	}
	return g.Wait()
}

func (i *Ingestor) refreshPair(ctx context.Context, pair domain.Pair) error {
	series, err := retrier.DoWithData(i.retrier, ctx, func(ctx context.Context) (domain.PriceSeries, error) {
		return i.collector.FetchSeries(ctx, pair)
	})
	if err != nil {
		return errors.Wrapf(err, "refresh %s", pair.String())
	}

	if err := i.store.Save(series); err != nil {
		return errors.Wrapf(err, "store series for %s", pair.String())
	}

	i.logger.Info("refreshed price history",
		zap.String("pair", pair.String()),
		zap.Int("points", series.Len()),
		zap.Int("dropped", series.Dropped))
	return nil
}

// Run refreshes immediately and then on every tick until the context ends.
// Refresh failures are logged, not fatal: the next tick tries again.
func (i *Ingestor) Run(ctx context.Context) error {
	if err := i.RefreshAll(ctx); err != nil {
		i.logger.Error("initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := i.RefreshAll(ctx); err != nil {
				i.logger.Error("refresh failed", zap.Error(err))
			}
		}
	}
}
