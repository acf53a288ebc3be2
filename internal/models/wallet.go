package models

import "time"

// Wallet represents a connected wallet in the system.
type Wallet struct {
	// Address is the EIP-55 checksummed wallet address.
	Address string `json:"address" gorm:"column:address;primaryKey"`
	// TelegramChatID is the chat that receives risk alerts for the wallet. Empty disables alerts.
	TelegramChatID string `json:"telegram_chat_id" gorm:"column:telegram_chat_id;index"`
	// CreatedAt is the unix timestamp of the first connect.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at;index"`
	// Active indicates if periodic rescans and alerts are enabled.
	Active bool `json:"active" gorm:"column:active;default:true"`
}

// ScanResult is the output of one run of the scoring pipeline for a wallet.
type ScanResult struct {
	ID           string              `json:"id"`
	Address      string              `json:"address"`
	Tokens       []TokenRecord       `json:"tokens"`
	Transactions []TransactionRecord `json:"transactions"`
	Summary      PortfolioSummary    `json:"summary"`
	ScannedAt    time.Time           `json:"scanned_at"`
}

// Warnings returns the warnings raised on the scan's transactions.
func (r *ScanResult) Warnings() []string {
	var out []string
	for _, tx := range r.Transactions {
		if tx.Warning != "" {
			out = append(out, tx.Warning+" ("+tx.TokenRef+")")
		}
	}
	return out
}
