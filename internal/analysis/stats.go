package analysis

import (
	"math"

	"github.com/pkg/errors"
)

// Statistical summaries over the price and return columns. Skewness and
// kurtosis follow the pandas conventions: adjusted Fisher-Pearson skew
// (undefined below 3 samples) and bias-corrected excess kurtosis (undefined
// below 4 samples).

// PriceStats is the compact distribution summary attached to anomaly reports.
type PriceStats struct {
	Mean     Value `json:"mean"`
	Std      Value `json:"std"`
	Min      Value `json:"min"`
	Max      Value `json:"max"`
	Q1       Value `json:"q1"`
	Median   Value `json:"median"`
	Q3       Value `json:"q3"`
	IQR      Value `json:"iqr"`
	Skewness Value `json:"skewness"`
	Kurtosis Value `json:"kurtosis"`
}

// DescriptiveStats is the full distribution summary for the scientific report.
type DescriptiveStats struct {
	Count                  int     `json:"count"`
	Mean                   Value   `json:"mean"`
	Std                    Value   `json:"std"`
	Min                    Value   `json:"min"`
	Max                    Value   `json:"max"`
	Range                  Value   `json:"range"`
	Variance               Value   `json:"variance"`
	Q1                     Value   `json:"q1"`
	Median                 Value   `json:"median"`
	Q3                     Value   `json:"q3"`
	IQR                    Value   `json:"iqr"`
	Skewness               Value   `json:"skewness"`
	Kurtosis               Value   `json:"kurtosis"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// Describe summarizes the defined cells of a column.
func Describe(c Column) PriceStats {
	vals := c.Defined()
	if len(vals) == 0 {
		return PriceStats{}
	}
	lo, hi := minMax(vals)
	q1 := quantile(vals, 0.25)
	q3 := quantile(vals, 0.75)
	return PriceStats{
		Mean:     Some(mean(vals)),
		Std:      finite(sampleStd(vals)),
		Min:      Some(lo),
		Max:      Some(hi),
		Q1:       Some(q1),
		Median:   Some(quantile(vals, 0.50)),
		Q3:       Some(q3),
		IQR:      Some(q3 - q1),
		Skewness: finite(skewness(vals)),
		Kurtosis: finite(kurtosis(vals)),
	}
}

// DescribeFull is Describe plus count, range, variance and the coefficient of
// variation (std/mean in percent, zero for a zero mean).
func DescribeFull(c Column) DescriptiveStats {
	vals := c.Defined()
	if len(vals) == 0 {
		return DescriptiveStats{}
	}
	lo, hi := minMax(vals)
	q1 := quantile(vals, 0.25)
	q3 := quantile(vals, 0.75)
	m := mean(vals)
	s := sampleStd(vals)

	cv := 0.0
	if m != 0 && !math.IsNaN(s) {
		cv = s / m * 100
	}

	return DescriptiveStats{
		Count:                  len(vals),
		Mean:                   Some(m),
		Std:                    finite(s),
		Min:                    Some(lo),
		Max:                    Some(hi),
		Range:                  Some(hi - lo),
		Variance:               finite(sampleVar(vals)),
		Q1:                     Some(q1),
		Median:                 Some(quantile(vals, 0.50)),
		Q3:                     Some(q3),
		IQR:                    Some(q3 - q1),
		Skewness:               finite(skewness(vals)),
		Kurtosis:               finite(kurtosis(vals)),
		CoefficientOfVariation: cv,
	}
}

// DailyReturnStats summarizes the daily return distribution in percent.
type DailyReturnStats struct {
	Mean         Value   `json:"mean"`
	Std          Value   `json:"std"`
	Min          Value   `json:"min"`
	Max          Value   `json:"max"`
	PositiveDays int     `json:"positive_days"`
	NegativeDays int     `json:"negative_days"`
	WinRate      float64 `json:"win_rate"`
}

// ReturnsBlock is the returns-analysis block of the scientific report.
type ReturnsBlock struct {
	DailyReturns         DailyReturnStats `json:"daily_returns"`
	CumulativeReturn     Value            `json:"cumulative_return"`
	AnnualizedReturn     Value            `json:"annualized_return"`
	AnnualizedVolatility Value            `json:"annualized_volatility"`
}

// ReturnsAnalysis summarizes daily returns: distribution, win rate, the
// cumulative first-to-last return, and 365-day annualized return/volatility.
func ReturnsAnalysis(prices Column) (ReturnsBlock, error) {
	returns := prices.PctChange().Defined()
	if len(returns) == 0 {
		return ReturnsBlock{}, errors.Wrap(ErrInsufficientData, "returns analysis needs at least 2 prices")
	}

	lo, hi := minMax(returns)
	positive, negative := 0, 0
	for _, r := range returns {
		if r > 0 {
			positive++
		} else if r < 0 {
			negative++
		}
	}
	m := mean(returns)
	s := sampleStd(returns)

	first, last := prices[0], prices.Last()
	cumulative := None()
	if first.Valid && last.Valid && first.V != 0 {
		cumulative = Some((last.V/first.V - 1) * 100)
	}

	annualVol := None()
	if !math.IsNaN(s) {
		annualVol = Some(s * math.Sqrt(365) * 100)
	}

	return ReturnsBlock{
		DailyReturns: DailyReturnStats{
			Mean:         Some(m * 100),
			Std:          finite(s * 100),
			Min:          Some(lo * 100),
			Max:          Some(hi * 100),
			PositiveDays: positive,
			NegativeDays: negative,
			WinRate:      float64(positive) / float64(len(returns)) * 100,
		},
		CumulativeReturn:     cumulative,
		AnnualizedReturn:     Some((math.Pow(1+m, 365) - 1) * 100),
		AnnualizedVolatility: annualVol,
	}, nil
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// skewness is the adjusted Fisher-Pearson coefficient: n/((n-1)(n-2)) times
// the sum of cubed standardized deviations.
func skewness(vals []float64) float64 {
	n := float64(len(vals))
	if n < 3 {
		return math.NaN()
	}
	m := mean(vals)
	s := sampleStd(vals)
	if s == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		d := (v - m) / s
		sum += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// kurtosis is the bias-corrected excess kurtosis (normal distribution is 0).
func kurtosis(vals []float64) float64 {
	n := float64(len(vals))
	if n < 4 {
		return math.NaN()
	}
	m := mean(vals)
	s := sampleStd(vals)
	if s == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		d := (v - m) / s
		sum += d * d * d * d
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// finite wraps a float as a Value, mapping NaN/Inf to the undefined cell.
func finite(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return None()
	}
	return Some(v)
}
