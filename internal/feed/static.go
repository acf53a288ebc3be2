package feed

import (
	"context"
	"time"

	"github.com/core-coin/blocksage/internal/models"
)

// StaticFeed serves the same demo portfolio for every address. It is used
// when no feed service is configured.
type StaticFeed struct {
	now func() time.Time
}

var _ models.PortfolioFeed = (*StaticFeed)(nil)

func NewStaticFeed() *StaticFeed {
	return &StaticFeed{now: time.Now}
}

// Snapshot returns fresh copies of the demo tokens and transactions.
func (s *StaticFeed) Snapshot(ctx context.Context, address string) ([]models.TokenRecord, []models.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return DemoTokens(), DemoTransactions(s.now()), nil
}

// DemoTokens returns the demo holdings: two blue chips, two questionable
// contracts and one honeypot.
func DemoTokens() []models.TokenRecord {
	return []models.TokenRecord{
		{
			ID: "ETH", Symbol: "ETH", Name: "Ethereum", Balance: 1.25, Value: 3750,
			Flags: models.ContractFlags{LiquidityScore: models.Pct(95)},
		},
		{
			ID: "BNB", Symbol: "BNB", Name: "BNB", Balance: 5.5, Value: 2200,
			Flags: models.ContractFlags{OwnerHoldingPct: 30, LiquidityScore: models.Pct(80)},
		},
		{
			ID: "SFM", Symbol: "SFM", Name: "SafeMoon V2", Balance: 50000, Value: 450,
			Flags: models.ContractFlags{
				MintableByOwner: true,
				OwnerHoldingPct: 30,
				SellTaxPct:      25,
				LiquidityScore:  models.Pct(12),
			},
		},
		{
			ID: "DFT", Symbol: "DFT", Name: "DeFi Token", Balance: 1000, Value: 250,
			Flags: models.ContractFlags{
				MintableByOwner: true,
				OwnerHoldingPct: 45,
				LiquidityScore:  models.Pct(70),
			},
		},
		{
			ID: "EPUMP", Symbol: "EPUMP", Name: "ElonPump", Balance: 5000000, Value: 120,
			Flags: models.ContractFlags{
				IsHoneypot:      true,
				MintableByOwner: true,
				OwnerHoldingPct: 80,
				SellTaxPct:      100,
				LiquidityScore:  models.Pct(5),
			},
		},
	}
}

// DemoTransactions returns the demo transaction history relative to now.
func DemoTransactions(now time.Time) []models.TransactionRecord {
	return []models.TransactionRecord{
		{
			ID: "0x1234...5678", Direction: models.DirectionReceive, TokenRef: "ETH", Amount: 0.5,
			Counterparty: "0xabcd...1234", Timestamp: now.Add(-2 * time.Hour), Status: models.TxCompleted,
		},
		{
			ID: "0xabcd...ef12", Direction: models.DirectionSend, TokenRef: "USDT", Amount: 500,
			Counterparty: "0xef12...3456", Timestamp: now.Add(-5 * time.Hour), Status: models.TxCompleted,
		},
		{
			ID: "0x7890...1234", Direction: models.DirectionReceive, TokenRef: "EPUMP", Amount: 5000000,
			Counterparty: "0x5678...9abc", Timestamp: now.Add(-24 * time.Hour), Status: models.TxCompleted,
		},
		{
			ID: "0xef12...7890", Direction: models.DirectionSend, TokenRef: "ETH", Amount: 0.2,
			Counterparty: "0x3456...7890", Timestamp: now.Add(-48 * time.Hour), Status: models.TxPending,
		},
	}
}
