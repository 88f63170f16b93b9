package analysis

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDescribe_KnownDistribution(t *testing.T) {
	stats := Describe(FromFloats([]float64{1, 2, 3, 4, 5}))

	require.InDelta(t, 3.0, stats.Mean.V, 1e-9)
	require.InDelta(t, 1.0, stats.Min.V, 1e-9)
	require.InDelta(t, 5.0, stats.Max.V, 1e-9)
	require.InDelta(t, 2.0, stats.Q1.V, 1e-9)
	require.InDelta(t, 3.0, stats.Median.V, 1e-9)
	require.InDelta(t, 4.0, stats.Q3.V, 1e-9)
	require.InDelta(t, 2.0, stats.IQR.V, 1e-9)

	// sample std of 1..5 with ddof=1
	require.InDelta(t, 1.5811388300841898, stats.Std.V, 1e-9)

	// symmetric distribution
	require.True(t, stats.Skewness.Valid)
	require.InDelta(t, 0.0, stats.Skewness.V, 1e-9)
}

func TestDescribe_Empty(t *testing.T) {
	stats := Describe(Column{})
	require.False(t, stats.Mean.Valid)
	require.False(t, stats.Std.Valid)
}

func TestDescribeFull_RangeVarianceCV(t *testing.T) {
	stats := DescribeFull(FromFloats([]float64{10, 20, 30, 40}))

	require.Equal(t, 4, stats.Count)
	require.InDelta(t, 30.0, stats.Range.V, 1e-9)
	require.InDelta(t, 166.66666666666666, stats.Variance.V, 1e-9)
	require.InDelta(t, stats.Std.V/stats.Mean.V*100, stats.CoefficientOfVariation, 1e-9)
}

func TestSkewness_TooFewSamples(t *testing.T) {
	stats := Describe(FromFloats([]float64{1, 2}))
	require.False(t, stats.Skewness.Valid)
	require.False(t, stats.Kurtosis.Valid)
}

func TestKurtosis_RequiresFourSamples(t *testing.T) {
	stats := Describe(FromFloats([]float64{1, 2, 3}))
	require.True(t, stats.Skewness.Valid)
	require.False(t, stats.Kurtosis.Valid)
}

func TestReturnsAnalysis_WinRateAndCumulative(t *testing.T) {
	// three up days, one down day
	block, err := ReturnsAnalysis(FromFloats([]float64{100, 110, 121, 120, 132}))
	require.NoError(t, err)

	require.Equal(t, 3, block.DailyReturns.PositiveDays)
	require.Equal(t, 1, block.DailyReturns.NegativeDays)
	require.InDelta(t, 75.0, block.DailyReturns.WinRate, 1e-9)

	require.True(t, block.CumulativeReturn.Valid)
	require.InDelta(t, 32.0, block.CumulativeReturn.V, 1e-9)

	require.True(t, block.AnnualizedReturn.Valid)
	require.True(t, block.AnnualizedVolatility.Valid)
}

func TestReturnsAnalysis_InsufficientData(t *testing.T) {
	_, err := ReturnsAnalysis(FromFloats([]float64{100}))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInsufficientData))
}

func TestQuantile_LinearInterpolation(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	require.InDelta(t, 1.75, quantile(vals, 0.25), 1e-9)
	require.InDelta(t, 2.5, quantile(vals, 0.50), 1e-9)
	require.InDelta(t, 3.25, quantile(vals, 0.75), 1e-9)
}
