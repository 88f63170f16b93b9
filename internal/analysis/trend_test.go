package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrendLabels_NeutralDuringWarmup(t *testing.T) {
	prices := constantColumn(40, 100.0)
	labels := TrendLabels(prices, 7, 30)

	require.Len(t, labels, 40)
	for i, label := range labels {
		require.Equal(t, TrendNeutral, label, "index %d", i)
	}
}

func TestTrendLabels_BullishAfterRally(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		if i < 40 {
			vals[i] = 100
		} else {
			// sharp rally lifts the 7-day average more than 2% above the 30-day
			vals[i] = 100 + float64(i-39)*5
		}
	}

	labels := TrendLabels(FromFloats(vals), 7, 30)
	require.Equal(t, TrendBullish, labels[len(labels)-1])
}

func TestTrendLabels_BearishAfterCrash(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		if i < 40 {
			vals[i] = 100
		} else {
			vals[i] = 100 - float64(i-39)*2
		}
	}

	labels := TrendLabels(FromFloats(vals), 7, 30)
	require.Equal(t, TrendBearish, labels[len(labels)-1])
}

func TestSupportResistance_PivotMath(t *testing.T) {
	prices := FromFloats([]float64{90, 110, 100})
	levels := SupportResistance(prices, 30)

	require.True(t, levels.Support.Valid)
	require.InDelta(t, 90.0, levels.Support.V, 1e-9)
	require.InDelta(t, 110.0, levels.Resistance.V, 1e-9)

	pivot := (90.0 + 110 + 100) / 3
	require.InDelta(t, pivot, levels.Pivot.V, 1e-9)
	require.InDelta(t, 2*pivot-90, levels.R1.V, 1e-9)
	require.InDelta(t, 2*pivot-110, levels.S1.V, 1e-9)
}

func TestSupportResistance_TrailingWindowOnly(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = 100
	}
	vals[0] = 1000 // outside the trailing 30-row window

	levels := SupportResistance(FromFloats(vals), 30)
	require.InDelta(t, 100.0, levels.Resistance.V, 1e-9)
}

func TestSupportResistance_Empty(t *testing.T) {
	levels := SupportResistance(Column{}, 30)
	require.False(t, levels.Support.Valid)
	require.False(t, levels.Pivot.Valid)
}
