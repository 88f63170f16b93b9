package analysis

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

func TestCorrelationMatrix_EmptyInput(t *testing.T) {
	_, err := CorrelationMatrix(nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEmptySeriesSet))
}

func TestCorrelationMatrix_SelfCorrelationIsOne(t *testing.T) {
	vals := randomWalkSeries(t, "BTC_USDT", 50, 13)
	series := map[string]domain.PriceSeries{
		"bitcoin":  dailySeries(t, "BTC_USDT", vals),
		"bitcoin2": dailySeries(t, "BTC_USDT", vals),
	}

	matrix, err := CorrelationMatrix(series)
	require.NoError(t, err)

	require.InDelta(t, 1.0, matrix["bitcoin"]["bitcoin"].V, 1e-9)
	require.InDelta(t, 1.0, matrix["bitcoin2"]["bitcoin2"].V, 1e-9)
	// identical histories correlate perfectly off the diagonal too
	require.True(t, matrix["bitcoin"]["bitcoin2"].Valid)
	require.InDelta(t, 1.0, matrix["bitcoin"]["bitcoin2"].V, 1e-9)
}

func TestCorrelationMatrix_Symmetric(t *testing.T) {
	series := map[string]domain.PriceSeries{
		"bitcoin":  dailySeries(t, "BTC_USDT", randomWalkSeries(t, "BTC_USDT", 60, 1)),
		"ethereum": dailySeries(t, "ETH_USDT", randomWalkSeries(t, "ETH_USDT", 60, 2)),
		"solana":   dailySeries(t, "SOL_USDT", randomWalkSeries(t, "SOL_USDT", 60, 3)),
	}

	matrix, err := CorrelationMatrix(series)
	require.NoError(t, err)
	require.Len(t, matrix, 3)

	for a := range series {
		for b := range series {
			require.True(t, matrix[a][b].Valid)
			require.InDelta(t, matrix[a][b].V, matrix[b][a].V, 1e-9)
			require.LessOrEqual(t, matrix[a][b].V, 1.0+1e-9)
			require.GreaterOrEqual(t, matrix[a][b].V, -1.0-1e-9)
		}
	}
}

func TestCorrelationMatrix_InnerJoinByTimestamp(t *testing.T) {
	// ethereum misses the first 30 days; only the overlap should be correlated
	btc := dailySeries(t, "BTC_USDT", randomWalkSeries(t, "BTC_USDT", 60, 5))
	eth := domain.PriceSeries{CoinID: "ETH_USDT", Points: btc.Points[30:]}

	matrix, err := CorrelationMatrix(map[string]domain.PriceSeries{
		"bitcoin":  btc,
		"ethereum": eth,
	})
	require.NoError(t, err)

	// overlapping rows are identical, so the joint correlation is exactly 1
	require.True(t, matrix["bitcoin"]["ethereum"].Valid)
	require.InDelta(t, 1.0, matrix["bitcoin"]["ethereum"].V, 1e-9)
}

func TestCorrelationMatrix_NoOverlap(t *testing.T) {
	btc := dailySeries(t, "BTC_USDT", randomWalkSeries(t, "BTC_USDT", 20, 6))
	ethPoints := make([]domain.PricePoint, len(btc.Points))
	for i, p := range btc.Points {
		ethPoints[i] = domain.PricePoint{Timestamp: p.Timestamp.AddDate(1, 0, 0), Price: p.Price}
	}
	eth := domain.PriceSeries{CoinID: "ETH_USDT", Points: ethPoints}

	matrix, err := CorrelationMatrix(map[string]domain.PriceSeries{
		"bitcoin":  btc,
		"ethereum": eth,
	})
	require.NoError(t, err)

	require.InDelta(t, 1.0, matrix["bitcoin"]["bitcoin"].V, 1e-9, "diagonal stays defined")
	require.False(t, matrix["bitcoin"]["ethereum"].Valid, "disjoint histories have no joint rows")
}
