// Package collector fetches kline (candlestick) data from cryptocurrency
// exchanges and normalizes it into price series for the analysis engine.
package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

const fetchTimeout = 30 * time.Second

// KlineProvider defines the interface for fetching kline (candlestick) data.
type KlineProvider interface {
	// GetKlines fetches historical kline data for a trading pair.
	// interval is the kline interval (e.g. "1h", "4h", "1d"),
	// limit is the maximum number of klines to fetch.
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error)
}

// Collector fetches candles for a pair and normalizes them into a PriceSeries.
type Collector struct {
	provider KlineProvider
	interval string
	limit    int
}

// NewCollector creates a collector fetching limit candles at the given interval.
func NewCollector(provider KlineProvider, interval string, limit int) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		limit:    limit,
	}
}

// FetchSeries fetches candles for the pair and converts close prices into a
// normalized PriceSeries keyed by the pair name.
func (c *Collector) FetchSeries(ctx context.Context, pair domain.Pair) (domain.PriceSeries, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := c.provider.GetKlines(ctxWithTimeout, pair, c.interval, c.limit)
	if err != nil {
		return domain.PriceSeries{}, errors.Wrapf(err, "failed to fetch klines for %s", pair.String())
	}

	if len(candles) == 0 {
		return domain.PriceSeries{}, errors.Errorf("no kline data returned for %s", pair.String())
	}

	points := make([]domain.PricePoint, len(candles))
	for i, candle := range candles {
		points[i] = domain.PricePoint{
			Timestamp: candle.OpenTime.UTC(),
			Price:     candle.Close.InexactFloat64(),
			Volume:    candle.Volume.InexactFloat64(),
		}
	}

	series, err := domain.NewPriceSeries(pair.String(), points)
	if err != nil {
		return domain.PriceSeries{}, errors.Wrapf(err, "normalize series for %s", pair.String())
	}
	return series, nil
}
