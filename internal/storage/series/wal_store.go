// Package series persists normalized price history in a WAL, one record per
// coin refresh. A record fully replaces the previous history for its coin;
// reads resolve the latest record per key through an in-memory index built by
// scanning the log on startup.
package series

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

const (
	defaultSeriesDir   = "./wal/series"
	seriesSegmentLimit = 1000
	seriesMaxSegments  = 100
	seriesKeyPrefix    = "series_"
)

// ErrNotFound is returned when no history exists for the requested coin.
var ErrNotFound = errors.New("series not found")

// WALStore is a WAL-backed price history store.
type WALStore struct {
	wal    *gowal.Wal
	mu     sync.RWMutex
	latest map[string]uint64 // coin id -> newest WAL index
}

// NewWALStore opens the WAL under dir and rebuilds the latest-record index.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSeriesDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "series_",
		SegmentThreshold: seriesSegmentLimit,
		MaxSegments:      seriesMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init series WAL")
	}

	s := &WALStore{wal: wal, latest: make(map[string]uint64)}
	s.rebuildIndex()
	return s, nil
}

func (s *WALStore) rebuildIndex() {
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		key, _, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, seriesKeyPrefix) {
			continue
		}
		s.latest[strings.TrimPrefix(key, seriesKeyPrefix)] = idx
	}
}

// Save appends the series as the new current history for its coin.
func (s *WALStore) Save(series domain.PriceSeries) error {
	if s == nil || s.wal == nil {
		return errors.New("series store is not initialized")
	}
	if series.CoinID == "" {
		return fmt.Errorf("series coin id is required")
	}

	payload, err := json.Marshal(series)
	if err != nil {
		return errors.Wrap(err, "marshal series")
	}

	key := seriesKeyPrefix + series.CoinID

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, key, payload); err != nil {
		return errors.Wrapf(err, "write series for %s", series.CoinID)
	}
	s.latest[series.CoinID] = nextIndex
	return nil
}

// Get returns the most recently saved history for the coin.
func (s *WALStore) Get(coinID string) (domain.PriceSeries, error) {
	if s == nil || s.wal == nil {
		return domain.PriceSeries{}, errors.New("series store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.latest[coinID]
	if !ok {
		return domain.PriceSeries{}, errors.Wrapf(ErrNotFound, "coin %s", coinID)
	}

	_, payload, ok := s.wal.Get(idx)
	if !ok {
		return domain.PriceSeries{}, errors.Wrapf(ErrNotFound, "coin %s at index %d", coinID, idx)
	}

	var series domain.PriceSeries
	if err := json.Unmarshal(payload, &series); err != nil {
		return domain.PriceSeries{}, errors.Wrapf(err, "decode series for %s", coinID)
	}
	return series, nil
}

// Coins lists the coins with stored history, sorted.
func (s *WALStore) Coins() []string {
	if s == nil || s.wal == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coins := make([]string, 0, len(s.latest))
	for coin := range s.latest {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return coins
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("series store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
