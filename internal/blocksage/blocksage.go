package blocksage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/core-coin/blocksage/internal/advisor"
	"github.com/core-coin/blocksage/internal/config"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
	"github.com/core-coin/blocksage/pkg/validation"
)

const (
	// rescanLock is the lease name guarding the periodic rescan across instances
	rescanLock = "periodic_rescan"
	// sweepInterval is how often idle advisory sessions are discarded
	sweepInterval = time.Minute
)

// BlockSage is the main struct for the BlockSage application
// It contains all the necessary components to run the application
// and serves all business logic
type BlockSage struct {
	logger *logger.Logger
	config *config.Config

	repo        models.Repository
	feed        models.PortfolioFeed
	notificator models.NotificationService
	sessions    *advisor.Manager

	instanceID string
	now        func() time.Time

	// scanLocks serializes scans of the same address so each one sees the previous result
	scanLocks sync.Map
}

// NewBlockSage creates a new BlockSage instance. notificator may be nil, which disables alerts.
func NewBlockSage(
	repo models.Repository,
	feed models.PortfolioFeed,
	notificator models.NotificationService,
	sessions *advisor.Manager,
	logger *logger.Logger,
	config *config.Config,
) *BlockSage {
	instanceID := uuid.NewString()
	return &BlockSage{
		repo:        repo,
		feed:        feed,
		notificator: notificator,
		sessions:    sessions,
		logger:      logger.With("instance", instanceID),
		config:      config,
		instanceID:  instanceID,
		now:         time.Now,
	}
}

// Sessions returns the advisory session manager
func (b *BlockSage) Sessions() *advisor.Manager {
	return b.sessions
}

// Start runs the periodic rescan of connected wallets and the idle session
// sweep until ctx is canceled. A zero RescanInterval disables rescans.
func (b *BlockSage) Start(ctx context.Context) {
	var rescan <-chan time.Time
	if b.config.RescanInterval > 0 {
		ticker := time.NewTicker(b.config.RescanInterval)
		defer ticker.Stop()
		rescan = ticker.C
	}
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	b.logger.Info("BlockSage started", "rescan_interval", b.config.RescanInterval)
	for {
		select {
		case <-rescan:
			b.RescanAll(ctx)
		case <-sweep.C:
			if n := b.sessions.Sweep(b.config.SessionIdleTTL); n > 0 {
				b.logger.Debug("Discarded idle advisory sessions", "count", n)
			}
		case <-ctx.Done():
			b.logger.Info("BlockSage stopped")
			return
		}
	}
}

// RescanAll rescans every active wallet when this instance holds the rescan lease
func (b *BlockSage) RescanAll(ctx context.Context) {
	ttl := int64(2 * b.config.RescanInterval / time.Second)
	if ttl < 60 {
		ttl = 60
	}
	ok, err := b.repo.AcquireLock(ctx, rescanLock, b.instanceID, ttl)
	if err != nil {
		b.logger.Error("Failed to acquire rescan lock", "error", err)
		return
	}
	if !ok {
		b.logger.Debug("Rescan lock held by another instance")
		return
	}

	wallets, err := b.repo.ListActiveWallets(ctx)
	if err != nil {
		b.logger.Error("Failed to list active wallets", "error", err)
		return
	}
	for _, wallet := range wallets {
		if ctx.Err() != nil {
			return
		}
		if _, err := b.Scan(ctx, wallet.Address); err != nil {
			b.logger.Error("Periodic rescan failed", "wallet", wallet.Address, "error", err)
		}
	}
	b.logger.Debug("Periodic rescan finished", "wallets", len(wallets))
}

// Connect registers the wallet, or reactivates it and updates its alert
// chat, then runs the first scan.
func (b *BlockSage) Connect(ctx context.Context, address, telegramChatID string) (*models.ScanResult, error) {
	address, err := normalize(address)
	if err != nil {
		return nil, err
	}

	wallet, err := b.repo.GetWallet(ctx, address)
	switch {
	case errors.Is(err, models.ErrWalletNotFound):
		wallet = &models.Wallet{
			Address:   address,
			CreatedAt: b.now().Unix(),
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	wallet.Active = true
	if telegramChatID != "" {
		wallet.TelegramChatID = telegramChatID
	}
	if err := b.repo.SaveWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to register wallet: %w", err)
	}
	b.logger.Info("Wallet connected", "wallet", address, "alerts", wallet.TelegramChatID != "")

	return b.Scan(ctx, address)
}

// LatestScan returns the most recent scan of address
func (b *BlockSage) LatestScan(ctx context.Context, address string) (*models.ScanResult, error) {
	address, err := normalize(address)
	if err != nil {
		return nil, err
	}
	return b.repo.LatestScan(ctx, address)
}

func normalize(address string) (string, error) {
	normalized, err := validation.ValidateAndNormalizeAddress(address)
	if err != nil {
		return "", &models.ValidationError{Field: "address", Reason: err.Error()}
	}
	return normalized, nil
}

func (b *BlockSage) lockAddress(address string) func() {
	mu, _ := b.scanLocks.LoadOrStore(address, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
