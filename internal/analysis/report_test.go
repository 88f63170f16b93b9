package analysis

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func randomWalkSeries(t *testing.T, coin string, n int, seed int64) []float64 {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	vals := make([]float64, n)
	price := 100.0
	for i := range vals {
		price *= 1 + (rng.Float64()-0.5)*0.05
		vals[i] = price
	}
	return vals
}

func TestFullAnalysis_InsufficientData(t *testing.T) {
	series := dailySeries(t, "BTC_USDT", []float64{100})
	_, err := NewEngine(Config{}).FullAnalysis(series)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInsufficientData))
}

func TestFullAnalysis_Blocks(t *testing.T) {
	vals := randomWalkSeries(t, "BTC_USDT", 60, 21)
	series := dailySeries(t, "BTC_USDT", vals)

	report, err := NewEngine(Config{}).FullAnalysis(series)
	require.NoError(t, err)

	require.Equal(t, series.LastPrice(), report.CurrentPrice)

	require.True(t, report.Indicators.SMA7.Valid)
	require.True(t, report.Indicators.SMA30.Valid)
	require.True(t, report.Indicators.EMA7.Valid)
	require.True(t, report.Indicators.RSI.Valid)
	require.Contains(t, []string{"overbought", "oversold", "neutral"}, report.Indicators.RSISignal)
	require.Contains(t, []string{"bullish", "bearish"}, report.Indicators.MACDTrend)
	require.Contains(t, []string{"above_upper", "below_lower", "upper_half", "lower_half"}, report.Indicators.BBPosition)

	require.True(t, report.RiskMetrics.Volatility7d.Valid)
	require.True(t, report.RiskMetrics.Volatility30d.Valid)
	require.True(t, report.RiskMetrics.MaxDrawdown.Valid)
	require.True(t, report.RiskMetrics.SharpeRatio.Valid)

	require.Contains(t, []string{TrendBullish, TrendBearish, TrendNeutral}, report.Trend.Direction)
	require.Equal(t, report.Indicators.SMA7, report.Trend.SMAShort)
	require.Equal(t, report.Indicators.SMA30, report.Trend.SMALong)

	require.True(t, report.Levels.Pivot.Valid)
	pivot := report.Levels.Pivot.V
	require.InDelta(t, 2*pivot-report.Levels.Support.V, report.Levels.R1.V, 1e-9)
	require.InDelta(t, 2*pivot-report.Levels.Resistance.V, report.Levels.S1.V, 1e-9)
}

func TestFullAnalysis_FrameColumns(t *testing.T) {
	vals := randomWalkSeries(t, "ETH_USDT", 45, 8)
	series := dailySeries(t, "ETH_USDT", vals)

	report, err := NewEngine(Config{}).FullAnalysis(series)
	require.NoError(t, err)
	require.NotNil(t, report.Columns)

	for _, name := range []string{"price", "sma_7", "sma_30", "rsi", "macd", "bb_upper", "bb_lower", "volatility_7d", "max_drawdown"} {
		col, ok := report.Columns.Columns[name]
		require.True(t, ok, "missing column %s", name)
		require.Len(t, col, 45)
	}
	require.Len(t, report.Columns.Trend, 45)
	require.Len(t, report.Columns.Timestamps, 45)
}

func TestFullAnalysis_WarmupMarshalsAsNull(t *testing.T) {
	// 5 points: sma_30 and the rolling risk columns never fill their windows
	series := dailySeries(t, "BTC_USDT", []float64{100, 102, 101, 104, 103})

	report, err := NewEngine(Config{}).FullAnalysis(series)
	require.NoError(t, err)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	body := string(raw)

	require.True(t, strings.Contains(body, `"sma_30":null`), "undefined cells must serialize as null: %s", body)
	require.True(t, strings.Contains(body, `"sharpe_ratio":null`))
	require.False(t, strings.Contains(body, "NaN"))
}

func TestGenerateScientificReport_InsufficientData(t *testing.T) {
	series := dailySeries(t, "BTC_USDT", randomWalkSeries(t, "BTC_USDT", 20, 2))
	_, err := NewEngine(Config{}).GenerateScientificReport(series)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInsufficientData))
}

func TestGenerateScientificReport_Sections(t *testing.T) {
	vals := randomWalkSeries(t, "BTC_USDT", 90, 17)
	series := dailySeries(t, "BTC_USDT", vals)

	report, err := NewEngine(Config{}).GenerateScientificReport(series)
	require.NoError(t, err)

	require.Equal(t, "BTC_USDT", report.Coin)
	require.Equal(t, 90, report.AnalysisPeriod.TotalDays)
	require.Equal(t, series.Points[0].Timestamp, report.AnalysisPeriod.Start)
	require.Equal(t, series.Points[89].Timestamp, report.AnalysisPeriod.End)

	require.Equal(t, 90, report.DescriptiveStatistics.Count)
	require.True(t, report.RiskAnalysis.MaxDrawdown.Valid)
	require.Equal(t, report.AnomalyDetection.ByMethod.AnyMethod, report.AnomalyDetection.TotalAnomalies)

	total := 0
	for _, count := range report.TrendAnalysis.TrendDistribution {
		total += count
	}
	require.Equal(t, 90, total, "trend labels must cover every row")
	require.Contains(t, []string{TrendBullish, TrendBearish, TrendNeutral}, report.TrendAnalysis.CurrentTrend)

	require.Equal(t, 0, report.DataQuality.MissingValues)
	require.InDelta(t, 100.0, report.DataQuality.DataCompleteness, 1e-9)
}

func TestGenerateScientificReport_DataQualityTracksDrops(t *testing.T) {
	vals := randomWalkSeries(t, "BTC_USDT", 40, 4)
	series := dailySeries(t, "BTC_USDT", append(vals, -5, 0))

	report, err := NewEngine(Config{}).GenerateScientificReport(series)
	require.NoError(t, err)

	require.Equal(t, 2, report.DataQuality.MissingValues)
	require.InDelta(t, 40.0/42.0*100, report.DataQuality.DataCompleteness, 1e-9)
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	engine := NewEngine(Config{RSIPeriod: 21})
	require.Equal(t, 21, engine.cfg.RSIPeriod)
	require.Equal(t, 7, engine.cfg.ShortPeriod)
	require.Equal(t, 30, engine.cfg.LongPeriod)
	require.Equal(t, 0.95, engine.cfg.Confidence)
	require.Equal(t, DefaultZScoreThreshold, engine.cfg.Anomaly.ZScoreThreshold)
}
