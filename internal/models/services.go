package models

import "context"

// PortfolioFeed supplies the current token and transaction records of a wallet.
type PortfolioFeed interface {
	Snapshot(ctx context.Context, address string) ([]TokenRecord, []TransactionRecord, error)
}

// KnowledgeService answers a conversation with a single assistant reply.
// Implementations return *NetworkError or *MalformedResponseError on failure.
type KnowledgeService interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// NotificationService delivers risk alerts.
type NotificationService interface {
	SendNotification(notification *Notification)
}

// Repository stores connected wallets and the scan history audit trail.
type Repository interface {
	SaveWallet(ctx context.Context, wallet *Wallet) error
	GetWallet(ctx context.Context, address string) (*Wallet, error)
	ListActiveWallets(ctx context.Context) ([]*Wallet, error)

	SaveScan(ctx context.Context, scan *ScanResult) error
	LatestScan(ctx context.Context, address string) (*ScanResult, error)

	// AcquireLock takes or renews a named lease. It returns false while another instance holds it.
	AcquireLock(ctx context.Context, name, instanceID string, ttlSeconds int64) (bool, error)
}
