package collector

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

type fakeProvider struct {
	candles []domain.Candle
	err     error
}

func (f *fakeProvider) GetKlines(_ context.Context, _ domain.Pair, _ string, _ int) ([]domain.Candle, error) {
	return f.candles, f.err
}

func candleAt(day int, close float64) domain.Candle {
	return domain.Candle{
		OpenTime: time.Date(2026, 1, 1+day, 0, 0, 0, 0, time.UTC),
		Close:    decimal.NewFromFloat(close),
		Volume:   decimal.NewFromInt(1000),
	}
}

func TestFetchSeries_NormalizesCandles(t *testing.T) {
	provider := &fakeProvider{candles: []domain.Candle{
		candleAt(0, 100),
		candleAt(1, 102),
		candleAt(2, 101),
	}}
	c := NewCollector(provider, "1d", 90)

	pair := domain.Pair{From: "BTC", To: "USDT"}
	series, err := c.FetchSeries(context.Background(), pair)
	require.NoError(t, err)

	require.Equal(t, "BTC_USDT", series.CoinID)
	require.Equal(t, 3, series.Len())
	require.Equal(t, []float64{100, 102, 101}, series.Prices())
	require.Equal(t, 1000.0, series.Points[0].Volume)
}

func TestFetchSeries_DropsBadRows(t *testing.T) {
	provider := &fakeProvider{candles: []domain.Candle{
		candleAt(0, 100),
		candleAt(1, 0), // zero close, dropped during normalization
		candleAt(2, 101),
	}}
	c := NewCollector(provider, "1d", 90)

	series, err := c.FetchSeries(context.Background(), domain.Pair{From: "BTC", To: "USDT"})
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	require.Equal(t, 1, series.Dropped)
}

func TestFetchSeries_ProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	c := NewCollector(provider, "1d", 90)

	_, err := c.FetchSeries(context.Background(), domain.Pair{From: "BTC", To: "USDT"})
	require.Error(t, err)
}

func TestFetchSeries_EmptyResponse(t *testing.T) {
	c := NewCollector(&fakeProvider{}, "1d", 90)

	_, err := c.FetchSeries(context.Background(), domain.Pair{From: "BTC", To: "USDT"})
	require.Error(t, err)
}

func TestConvertIntervalToBybit(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		shouldErr bool
	}{
		{name: "1 minute", input: "1m", expected: "1"},
		{name: "15 minutes", input: "15m", expected: "15"},
		{name: "1 hour", input: "1h", expected: "60"},
		{name: "4 hours", input: "4h", expected: "240"},
		{name: "1 day", input: "1d", expected: "D"},
		{name: "1 week", input: "1w", expected: "W"},
		{name: "empty", input: "", shouldErr: true},
		{name: "no unit", input: "1", shouldErr: true},
		{name: "unsupported unit", input: "1x", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertIntervalToBybit(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("1704067200000")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ts.UTC())

	_, err = parseTimestamp("")
	require.Error(t, err)
}
