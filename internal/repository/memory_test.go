package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/blocksage/internal/models"
)

func TestMemoryDB_Wallets(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()

	_, err := db.GetWallet(ctx, "0xabc")
	assert.ErrorIs(t, err, models.ErrWalletNotFound)

	require.NoError(t, db.SaveWallet(ctx, &models.Wallet{Address: "0xbbb", Active: true}))
	require.NoError(t, db.SaveWallet(ctx, &models.Wallet{Address: "0xaaa", Active: true, TelegramChatID: "42"}))
	require.NoError(t, db.SaveWallet(ctx, &models.Wallet{Address: "0xccc", Active: false}))

	wallet, err := db.GetWallet(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, "42", wallet.TelegramChatID)

	// returned wallets are copies
	wallet.TelegramChatID = "changed"
	again, _ := db.GetWallet(ctx, "0xaaa")
	assert.Equal(t, "42", again.TelegramChatID)

	active, err := db.ListActiveWallets(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "0xaaa", active[0].Address)
	assert.Equal(t, "0xbbb", active[1].Address)
}

func TestMemoryDB_Scans(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()

	_, err := db.LatestScan(ctx, "0xaaa")
	assert.ErrorIs(t, err, models.ErrScanNotFound)

	for i := 0; i < maxScansPerWallet+5; i++ {
		require.NoError(t, db.SaveScan(ctx, &models.ScanResult{
			ID:      string(rune('a' + i%26)),
			Address: "0xaaa",
			Summary: models.PortfolioSummary{TokenCount: i},
		}))
	}
	latest, err := db.LatestScan(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, maxScansPerWallet+4, latest.Summary.TokenCount)
	assert.Len(t, db.scans["0xaaa"], maxScansPerWallet)
}

func TestMemoryDB_AcquireLock(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	now := time.Unix(1_700_000_000, 0)
	db.now = func() time.Time { return now }

	ok, err := db.AcquireLock(ctx, "rescan", "a", 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = db.AcquireLock(ctx, "rescan", "b", 60)
	assert.False(t, ok, "lease held by another instance")

	ok, _ = db.AcquireLock(ctx, "rescan", "a", 60)
	assert.True(t, ok, "holder renews its own lease")

	now = now.Add(61 * time.Second)
	ok, _ = db.AcquireLock(ctx, "rescan", "b", 60)
	assert.True(t, ok, "expired lease is taken over")
}
