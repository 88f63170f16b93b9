package users

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

func TestWALStore_SaveAndGet(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	user := domain.User{
		Username:      "carol",
		WalletBalance: decimal.NewFromInt(500),
		Trades: []domain.Trade{
			{Coin: "bitcoin", BuyPrice: decimal.NewFromInt(40000), Amount: decimal.NewFromFloat(0.01)},
		},
	}
	require.NoError(t, store.Save(user))

	got, err := store.Get("carol")
	require.NoError(t, err)
	require.Equal(t, "carol", got.Username)
	require.True(t, got.WalletBalance.Equal(decimal.NewFromInt(500)))
	require.Len(t, got.Trades, 1)
	require.True(t, got.Trades[0].BuyPrice.Equal(decimal.NewFromInt(40000)))
}

func TestWALStore_SaveReplacesUser(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(domain.User{Username: "carol", WalletBalance: decimal.NewFromInt(500)}))
	require.NoError(t, store.Save(domain.User{Username: "carol", WalletBalance: decimal.NewFromInt(700)}))

	got, err := store.Get("carol")
	require.NoError(t, err)
	require.True(t, got.WalletBalance.Equal(decimal.NewFromInt(700)))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1, "a replaced user must not appear twice")
}

func TestWALStore_GetUnknownUser(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get("nobody")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestWALStore_SeedDemo(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SeedDemo())

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Alice_Smith", all[0].Username)
	require.Equal(t, "Bob_Jones", all[1].Username)
	require.Len(t, all[0].Trades, 2)

	// seeding again must not duplicate accounts
	require.NoError(t, store.SeedDemo())
	all, err = store.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestWALStore_SeedDemoSkipsNonEmptyStore(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(domain.User{Username: "carol"}))
	require.NoError(t, store.SeedDemo())

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "carol", all[0].Username)
}
