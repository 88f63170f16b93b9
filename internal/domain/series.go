// Package domain defines core data structures used throughout the analytics service.
package domain

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// ErrEmptySeries is returned when a price series contains no usable rows.
var ErrEmptySeries = errors.New("price series is empty")

// PricePoint is a single market observation for a coin.
type PricePoint struct {
	// Timestamp is the observation time (UTC).
	Timestamp time.Time `json:"timestamp"`
	// Price is the close price, always > 0 for retained rows.
	Price float64 `json:"price"`
	// Volume is the traded volume over the interval, zero when unknown.
	Volume float64 `json:"volume,omitempty"`
}

// PriceSeries is a time-ordered, deduplicated sequence of price observations
// for one coin. It is never mutated in place: analysis functions read it and
// return freshly allocated derived data.
type PriceSeries struct {
	// CoinID identifies the coin, e.g. "BTC_USDT".
	CoinID string `json:"coin_id"`
	// Points are ordered by strictly increasing timestamp.
	Points []PricePoint `json:"points"`
	// Dropped counts rows discarded during normalization (zero, negative or
	// non-finite prices, duplicate timestamps).
	Dropped int `json:"dropped,omitempty"`
}

// NewPriceSeries normalizes raw observations into a PriceSeries: rows are
// sorted by timestamp, duplicates collapse to the last occurrence, and rows
// with non-positive or non-finite prices are dropped rather than coerced.
func NewPriceSeries(coinID string, points []PricePoint) (PriceSeries, error) {
	cleaned := make([]PricePoint, 0, len(points))
	dropped := 0
	for _, p := range points {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			dropped++
			continue
		}
		cleaned = append(cleaned, p)
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Timestamp.Before(cleaned[j].Timestamp)
	})

	deduped := cleaned[:0]
	for _, p := range cleaned {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp.Equal(p.Timestamp) {
			// incremental update of the same observation, keep the latest
			deduped[n-1] = p
			dropped++
			continue
		}
		deduped = append(deduped, p)
	}

	if len(deduped) == 0 {
		return PriceSeries{}, errors.Wrapf(ErrEmptySeries, "coin %s", coinID)
	}

	return PriceSeries{CoinID: coinID, Points: deduped, Dropped: dropped}, nil
}

// Len returns the number of retained observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Prices returns a copy of the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Timestamps returns a copy of the timestamp column.
func (s PriceSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Timestamp
	}
	return out
}

// LastPrice returns the most recent price.
func (s PriceSeries) LastPrice() float64 {
	return s.Points[len(s.Points)-1].Price
}
