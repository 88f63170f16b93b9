package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

// CorrelationMatrix computes pairwise Pearson correlation of daily returns
// across coins. Returns are joined by timestamp: rows where any coin lacks a
// return are dropped before correlating. Cells with fewer than two joint
// observations, or a zero-variance side, are undefined.
func CorrelationMatrix(series map[string]domain.PriceSeries) (map[string]map[string]Value, error) {
	if len(series) == 0 {
		return nil, errors.Wrap(ErrEmptySeriesSet, "correlation matrix")
	}

	coins := make([]string, 0, len(series))
	returnsByCoin := make(map[string]map[time.Time]float64, len(series))
	for coin, s := range series {
		coins = append(coins, coin)
		prices := FromFloats(s.Prices())
		pct := prices.PctChange()
		timestamps := s.Timestamps()
		byTS := make(map[time.Time]float64)
		for i, cell := range pct {
			if cell.Valid {
				byTS[timestamps[i]] = cell.V
			}
		}
		returnsByCoin[coin] = byTS
	}
	sort.Strings(coins)

	// inner join: timestamps present for every coin
	var joint []time.Time
	for ts := range returnsByCoin[coins[0]] {
		ok := true
		for _, coin := range coins[1:] {
			if _, found := returnsByCoin[coin][ts]; !found {
				ok = false
				break
			}
		}
		if ok {
			joint = append(joint, ts)
		}
	}
	sort.Slice(joint, func(i, j int) bool { return joint[i].Before(joint[j]) })

	aligned := make(map[string][]float64, len(coins))
	for _, coin := range coins {
		vals := make([]float64, len(joint))
		for i, ts := range joint {
			vals[i] = returnsByCoin[coin][ts]
		}
		aligned[coin] = vals
	}

	matrix := make(map[string]map[string]Value, len(coins))
	for _, a := range coins {
		row := make(map[string]Value, len(coins))
		for _, b := range coins {
			if a == b {
				row[b] = Some(1.0)
				continue
			}
			row[b] = pearson(aligned[a], aligned[b])
		}
		matrix[a] = row
	}
	return matrix, nil
}

// ErrEmptySeriesSet is returned when a multi-series operation gets no input.
var ErrEmptySeriesSet = errors.New("no series supplied")

func pearson(xs, ys []float64) Value {
	if len(xs) < 2 {
		return None()
	}
	cov := sampleCov(xs, ys)
	sx := sampleStd(xs)
	sy := sampleStd(ys)
	if math.IsNaN(cov) || sx == 0 || sy == 0 {
		return None()
	}
	return Some(cov / (sx * sy))
}
