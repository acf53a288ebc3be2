package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/core-coin/blocksage/internal/models"
)

// maxScansPerWallet bounds the in-memory history kept for each wallet.
const maxScansPerWallet = 50

// MemoryDB keeps wallets and scan history in process memory. It is used
// when no database is configured and in tests.
type MemoryDB struct {
	mu      sync.RWMutex
	wallets map[string]models.Wallet
	scans   map[string][]*models.ScanResult
	locks   map[string]models.AppLock
	now     func() time.Time
}

var _ models.Repository = (*MemoryDB)(nil)

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		wallets: make(map[string]models.Wallet),
		scans:   make(map[string][]*models.ScanResult),
		locks:   make(map[string]models.AppLock),
		now:     time.Now,
	}
}

func (db *MemoryDB) SaveWallet(_ context.Context, wallet *models.Wallet) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.wallets[wallet.Address] = *wallet
	return nil
}

func (db *MemoryDB) GetWallet(_ context.Context, address string) (*models.Wallet, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	wallet, ok := db.wallets[address]
	if !ok {
		return nil, models.ErrWalletNotFound
	}
	return &wallet, nil
}

func (db *MemoryDB) ListActiveWallets(_ context.Context) ([]*models.Wallet, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []*models.Wallet
	for _, w := range db.wallets {
		if w.Active {
			w := w
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (db *MemoryDB) SaveScan(_ context.Context, scan *models.ScanResult) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored := *scan
	history := append(db.scans[scan.Address], &stored)
	if len(history) > maxScansPerWallet {
		history = history[len(history)-maxScansPerWallet:]
	}
	db.scans[scan.Address] = history
	return nil
}

func (db *MemoryDB) LatestScan(_ context.Context, address string) (*models.ScanResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	history := db.scans[address]
	if len(history) == 0 {
		return nil, models.ErrScanNotFound
	}
	latest := *history[len(history)-1]
	return &latest, nil
}

func (db *MemoryDB) AcquireLock(_ context.Context, name, instanceID string, ttlSeconds int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.now().Unix()
	if held, ok := db.locks[name]; ok && held.InstanceID != instanceID && held.ExpiresAt >= now {
		return false, nil
	}
	db.locks[name] = models.AppLock{
		LockName:   name,
		InstanceID: instanceID,
		AcquiredAt: now,
		ExpiresAt:  now + ttlSeconds,
	}
	return true, nil
}
