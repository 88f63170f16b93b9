package analysis

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

// Defaults for the four anomaly detectors. The global and rolling z-score
// paths deliberately carry separate thresholds: the summary uses 3.0, the
// chart overlay 2.5.
const (
	DefaultZScoreThreshold        = 3.0
	DefaultZScoreChartThreshold   = 2.5
	DefaultIQRMultiplier          = 1.5
	DefaultRollingWindow          = 20
	DefaultRollingZScoreThreshold = 2.5
	DefaultSpikeThreshold         = 0.10
)

// minAnomalyRows is the minimum series length for a meaningful summary.
const minAnomalyRows = 10

// AnomalyConfig parameterizes the detectors.
type AnomalyConfig struct {
	ZScoreThreshold        float64
	IQRMultiplier          float64
	RollingWindow          int
	RollingZScoreThreshold float64
	SpikeThreshold         float64
}

// DefaultAnomalyConfig returns the detector defaults.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		ZScoreThreshold:        DefaultZScoreThreshold,
		IQRMultiplier:          DefaultIQRMultiplier,
		RollingWindow:          DefaultRollingWindow,
		RollingZScoreThreshold: DefaultRollingZScoreThreshold,
		SpikeThreshold:         DefaultSpikeThreshold,
	}
}

// DetectZScore flags rows whose distance from the whole-series mean exceeds
// threshold standard deviations. Returns the z-score column and the flags.
func DetectZScore(prices Column, threshold float64) (Column, []bool) {
	vals := prices.Defined()
	z := make(Column, len(prices))
	flags := make([]bool, len(prices))
	if len(vals) == 0 {
		return z, flags
	}
	m := mean(vals)
	s := sampleStd(vals)
	if math.IsNaN(s) {
		s = 0
	}
	for i, cell := range prices {
		if !cell.Valid {
			continue
		}
		score := (cell.V - m) / (s + epsilon)
		z[i] = Some(score)
		flags[i] = math.Abs(score) > threshold
	}
	return z, flags
}

// DetectIQR flags rows outside [Q1 - m*IQR, Q3 + m*IQR] computed over the
// whole series. Returns the bounds alongside the flags.
func DetectIQR(prices Column, multiplier float64) (lower, upper Value, flags []bool) {
	vals := prices.Defined()
	flags = make([]bool, len(prices))
	if len(vals) == 0 {
		return None(), None(), flags
	}
	q1 := quantile(vals, 0.25)
	q3 := quantile(vals, 0.75)
	iqr := q3 - q1
	lo := q1 - multiplier*iqr
	hi := q3 + multiplier*iqr
	for i, cell := range prices {
		if cell.Valid && (cell.V < lo || cell.V > hi) {
			flags[i] = true
		}
	}
	return Some(lo), Some(hi), flags
}

// DetectRollingZScore is the z-score detector with mean/std taken over a
// trailing window instead of the whole series, so it reacts to local rather
// than global deviation.
func DetectRollingZScore(prices Column, window int, threshold float64) (Column, []bool) {
	rollMean := prices.RollingMean(window)
	rollStd := prices.RollingStd(window)

	z := make(Column, len(prices))
	flags := make([]bool, len(prices))
	for i, cell := range prices {
		if !cell.Valid || !rollMean[i].Valid || !rollStd[i].Valid {
			continue
		}
		score := (cell.V - rollMean[i].V) / (rollStd[i].V + epsilon)
		z[i] = Some(score)
		flags[i] = math.Abs(score) > threshold
	}
	return z, flags
}

// Spike directions.
const (
	SpikeUp   = "up"
	SpikeDown = "down"
	SpikeNone = "none"
)

// DetectSpikes flags rows whose percent change from the previous row exceeds
// the threshold in magnitude, with a per-row direction label.
func DetectSpikes(prices Column, threshold float64) (flags []bool, directions []string) {
	pct := prices.PctChange()
	flags = make([]bool, len(prices))
	directions = make([]string, len(prices))
	for i, cell := range pct {
		directions[i] = SpikeNone
		if !cell.Valid {
			continue
		}
		switch {
		case cell.V > threshold:
			flags[i] = true
			directions[i] = SpikeUp
		case cell.V < -threshold:
			flags[i] = true
			directions[i] = SpikeDown
		}
	}
	return flags, directions
}

// AnomalyCounts is the per-detector and combined hit count.
type AnomalyCounts struct {
	ZScore     int `json:"zscore"`
	IQR        int `json:"iqr"`
	Rolling    int `json:"rolling"`
	PriceSpike int `json:"price_spike"`
	AnyMethod  int `json:"any_method"`
}

// AnomalyReport is the series-level anomaly summary.
type AnomalyReport struct {
	TotalDataPoints   int           `json:"total_data_points"`
	Counts            AnomalyCounts `json:"anomaly_counts"`
	AnomalyPercentage float64       `json:"anomaly_percentage"`
	AnomalyDates      []time.Time   `json:"anomaly_dates"`
	Statistics        PriceStats    `json:"statistics"`

	// Flags holds the per-row combined detector result for chart overlays.
	Flags []bool `json:"-"`
}

// AnomalySummary runs all four detectors over the series, ORs their flags and
// aggregates counts, the ten most recent anomalous timestamps and descriptive
// statistics of the raw price column.
func AnomalySummary(series domain.PriceSeries, cfg AnomalyConfig) (AnomalyReport, error) {
	if series.Len() < minAnomalyRows {
		return AnomalyReport{}, errors.Wrapf(ErrInsufficientData,
			"anomaly summary needs at least %d points, got %d", minAnomalyRows, series.Len())
	}

	prices := FromFloats(series.Prices())
	_, zFlags := DetectZScore(prices, cfg.ZScoreThreshold)
	_, _, iqrFlags := DetectIQR(prices, cfg.IQRMultiplier)
	_, rollFlags := DetectRollingZScore(prices, cfg.RollingWindow, cfg.RollingZScoreThreshold)
	spikeFlags, _ := DetectSpikes(prices, cfg.SpikeThreshold)

	timestamps := series.Timestamps()
	var counts AnomalyCounts
	combined := make([]bool, len(prices))
	dates := make([]time.Time, 0)
	for i := range prices {
		if zFlags[i] {
			counts.ZScore++
		}
		if iqrFlags[i] {
			counts.IQR++
		}
		if rollFlags[i] {
			counts.Rolling++
		}
		if spikeFlags[i] {
			counts.PriceSpike++
		}
		if zFlags[i] || iqrFlags[i] || rollFlags[i] || spikeFlags[i] {
			combined[i] = true
			counts.AnyMethod++
			dates = append(dates, timestamps[i])
		}
	}
	if len(dates) > 10 {
		dates = dates[len(dates)-10:]
	}

	return AnomalyReport{
		TotalDataPoints:   len(prices),
		Counts:            counts,
		AnomalyPercentage: round2(float64(counts.AnyMethod) / float64(len(prices)) * 100),
		AnomalyDates:      dates,
		Statistics:        Describe(prices),
		Flags:             combined,
	}, nil
}
