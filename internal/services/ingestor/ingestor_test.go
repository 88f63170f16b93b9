package ingestor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinlens/internal/domain"
	"github.com/vadiminshakov/coinlens/internal/services/collector"
	"github.com/vadiminshakov/coinlens/pkg/retrier"
)

type fakeProvider struct {
	mu       sync.Mutex
	failures map[string]int // pair -> remaining failures before success
	calls    int
}

func (f *fakeProvider) GetKlines(_ context.Context, pair domain.Pair, _ string, _ int) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if remaining := f.failures[pair.String()]; remaining > 0 {
		f.failures[pair.String()] = remaining - 1
		return nil, errors.New("exchange unavailable")
	}

	candles := make([]domain.Candle, 3)
	for i := range candles {
		candles[i] = domain.Candle{
			OpenTime: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Close:    decimal.NewFromInt(int64(100 + i)),
		}
	}
	return candles, nil
}

type memStore struct {
	mu    sync.Mutex
	saved map[string]domain.PriceSeries
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]domain.PriceSeries)}
}

func (m *memStore) Save(series domain.PriceSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[series.CoinID] = series
	return nil
}

func quickRetrier() *retrier.Retrier {
	return retrier.New(
		retrier.WithInitialInterval(time.Millisecond),
		retrier.WithMaxInterval(2*time.Millisecond),
		retrier.WithMaxRetries(3),
	)
}

func testPairs() []domain.Pair {
	return []domain.Pair{
		{From: "BTC", To: "USDT"},
		{From: "ETH", To: "USDT"},
		{From: "SOL", To: "USDT"},
	}
}

func TestRefreshAll_StoresEveryPair(t *testing.T) {
	provider := &fakeProvider{}
	store := newMemStore()
	ing := New(collector.NewCollector(provider, "1d", 90), store, testPairs(), time.Hour, zap.NewNop())

	require.NoError(t, ing.RefreshAll(context.Background()))

	require.Len(t, store.saved, 3)
	require.Equal(t, 3, store.saved["BTC_USDT"].Len())
}

func TestRefreshAll_RetriesTransientFailures(t *testing.T) {
	provider := &fakeProvider{failures: map[string]int{"ETH_USDT": 2}}
	store := newMemStore()
	ing := New(collector.NewCollector(provider, "1d", 90), store, testPairs(), time.Hour, zap.NewNop())
	ing.retrier = quickRetrier()

	require.NoError(t, ing.RefreshAll(context.Background()))
	require.Len(t, store.saved, 3, "a pair that recovers within the retry budget must be stored")
}

func TestRefreshAll_GivesUpAfterRetries(t *testing.T) {
	provider := &fakeProvider{failures: map[string]int{"ETH_USDT": 100}}
	store := newMemStore()
	ing := New(collector.NewCollector(provider, "1d", 90), store, testPairs(), time.Hour, zap.NewNop())
	ing.retrier = quickRetrier()

	err := ing.RefreshAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "ETH_USDT")
}
