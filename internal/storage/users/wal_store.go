// Package users persists exchange accounts in a WAL with replace semantics:
// saving a user supersedes the previous record for the same username.
package users

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

const (
	defaultUsersDir   = "./wal/users"
	usersSegmentLimit = 1000
	usersMaxSegments  = 100
	usersKeyPrefix    = "user_"
)

// ErrNotFound is returned when the requested user does not exist.
var ErrNotFound = errors.New("user not found")

// WALStore is a WAL-backed user store.
type WALStore struct {
	wal    *gowal.Wal
	mu     sync.RWMutex
	latest map[string]uint64 // username -> newest WAL index
}

// NewWALStore opens the WAL under dir and rebuilds the latest-record index.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultUsersDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "users_",
		SegmentThreshold: usersSegmentLimit,
		MaxSegments:      usersMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init users WAL")
	}

	s := &WALStore{wal: wal, latest: make(map[string]uint64)}
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		key, _, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, usersKeyPrefix) {
			continue
		}
		s.latest[strings.TrimPrefix(key, usersKeyPrefix)] = idx
	}
	return s, nil
}

// Save writes the user as the current record for their username.
func (s *WALStore) Save(user domain.User) error {
	if s == nil || s.wal == nil {
		return errors.New("users store is not initialized")
	}
	if user.Username == "" {
		return fmt.Errorf("username is required")
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "marshal user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, usersKeyPrefix+user.Username, payload); err != nil {
		return errors.Wrapf(err, "write user %s", user.Username)
	}
	s.latest[user.Username] = nextIndex
	return nil
}

// Get returns the current record for the username.
func (s *WALStore) Get(username string) (domain.User, error) {
	if s == nil || s.wal == nil {
		return domain.User{}, errors.New("users store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getLocked(username)
}

func (s *WALStore) getLocked(username string) (domain.User, error) {
	idx, ok := s.latest[username]
	if !ok {
		return domain.User{}, errors.Wrapf(ErrNotFound, "user %s", username)
	}

	_, payload, ok := s.wal.Get(idx)
	if !ok {
		return domain.User{}, errors.Wrapf(ErrNotFound, "user %s at index %d", username, idx)
	}

	var user domain.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return domain.User{}, errors.Wrapf(err, "decode user %s", username)
	}
	return user, nil
}

// All returns every stored user, sorted by username.
func (s *WALStore) All() ([]domain.User, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("users store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.latest))
	for name := range s.latest {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.User, 0, len(names))
	for _, name := range names {
		user, err := s.getLocked(name)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, nil
}

// SeedDemo inserts the demo accounts when the store is empty, so a fresh
// install has portfolios to analyze.
func (s *WALStore) SeedDemo() error {
	s.mu.RLock()
	empty := len(s.latest) == 0
	s.mu.RUnlock()
	if !empty {
		return nil
	}

	demo := []domain.User{
		{
			Username:      "Alice_Smith",
			WalletBalance: decimal.NewFromInt(15000),
			Trades: []domain.Trade{
				{
					Coin:     "bitcoin",
					BuyPrice: decimal.NewFromInt(42000),
					Amount:   decimal.NewFromFloat(0.05),
					Date:     time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
				},
				{
					Coin:     "solana",
					BuyPrice: decimal.NewFromInt(60),
					Amount:   decimal.NewFromInt(10),
					Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			Username:      "Bob_Jones",
			WalletBalance: decimal.NewFromInt(2000),
			Trades: []domain.Trade{
				{
					Coin:     "ethereum",
					BuyPrice: decimal.NewFromInt(2800),
					Amount:   decimal.NewFromInt(1),
					Date:     time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
				},
			},
		},
	}

	for _, user := range demo {
		if err := s.Save(user); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("users store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
