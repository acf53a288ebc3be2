package blocksage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/core-coin/blocksage/internal/metrics"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/internal/risk"
)

// Scan runs the scoring pipeline for address: fetch the portfolio, classify
// every token, tag every transaction, aggregate, store the result and alert
// the wallet's chat when the portfolio turned risky or a new warning appeared.
func (b *BlockSage) Scan(ctx context.Context, address string) (*models.ScanResult, error) {
	address, err := normalize(address)
	if err != nil {
		return nil, err
	}
	unlock := b.lockAddress(address)
	defer unlock()

	start := time.Now()
	result, prev, err := b.scan(ctx, address)
	if err != nil {
		metrics.ScanFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScansTotal.WithLabelValues(string(result.Summary.OverallLabel)).Inc()

	b.logger.Info("Wallet scanned", "wallet", address, "score", result.Summary.OverallScore,
		"label", result.Summary.OverallLabel, "tokens", len(result.Tokens), "transactions", len(result.Transactions))

	b.alert(ctx, result, prev)
	return result, nil
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func failureReason(err error) string {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var sErr *stageError
	if errors.As(err, &sErr) {
		return sErr.stage
	}
	return "unknown"
}

func (b *BlockSage) scan(ctx context.Context, address string) (*models.ScanResult, *models.ScanResult, error) {
	rawTokens, rawTxs, err := b.feed.Snapshot(ctx, address)
	if err != nil {
		return nil, nil, &stageError{"feed", fmt.Errorf("failed to fetch portfolio: %w", err)}
	}

	prev, err := b.repo.LatestScan(ctx, address)
	if errors.Is(err, models.ErrScanNotFound) {
		prev = nil
	} else if err != nil {
		return nil, nil, &stageError{"store", fmt.Errorf("failed to load previous scan: %w", err)}
	}

	tokens := make([]models.TokenRecord, 0, len(rawTokens))
	levels := make(map[string]models.RiskLevel, len(rawTokens))
	for _, raw := range rawTokens {
		classified, err := risk.ClassifyToken(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to classify token %s: %w", raw.ID, err)
		}
		tokens = append(tokens, classified)
		levels[classified.ID] = classified.RiskLevel
	}

	txs, err := tagTransactions(rawTxs, levels, prev)
	if err != nil {
		return nil, nil, err
	}

	result := &models.ScanResult{
		ID:           uuid.NewString(),
		Address:      address,
		Tokens:       tokens,
		Transactions: txs,
		Summary:      risk.Aggregate(tokens),
		ScannedAt:    b.now().UTC(),
	}
	if err := b.repo.SaveScan(ctx, result); err != nil {
		return nil, nil, &stageError{"store", fmt.Errorf("failed to save scan: %w", err)}
	}
	return result, prev, nil
}

// tagTransactions annotates the fetched transactions. Tokens held in the
// previous scan count as previously held for transactions seen for the first
// time; a transaction seen before keeps its warning, a terminal one is
// carried over unchanged, and a status change since then must be a legal
// transition.
func tagTransactions(raw []models.TransactionRecord, levels map[string]models.RiskLevel, prev *models.ScanResult) ([]models.TransactionRecord, error) {
	held := make(map[string]bool)
	seen := make(map[string]models.TransactionRecord)
	if prev != nil {
		for _, t := range prev.Tokens {
			if t.Balance > 0 {
				held[t.ID] = true
			}
		}
		for _, tx := range prev.Transactions {
			seen[tx.ID] = tx
		}
	}

	_, unknownLevel := risk.Score(models.ContractFlags{})
	out := make([]models.TransactionRecord, 0, len(raw))
	for _, tx := range raw {
		level, ok := levels[tx.TokenRef]
		if !ok {
			level = unknownLevel
		}

		before, known := seen[tx.ID]
		if known && before.Status != tx.Status {
			moved, err := risk.Transition(before, tx.Status)
			if err != nil {
				return nil, err
			}
			tx = moved
		} else if known {
			tx = before
		}

		tagged := risk.Tag(tx, level, held[tx.TokenRef])
		if known {
			// holdings are judged when the transaction first appears; later
			// scans see the received token as held
			tagged.Warning = before.Warning
		}
		out = append(out, tagged)
	}
	return out, nil
}

// alert notifies the wallet's chat when the overall label reached high or
// above for the first time, or when the scan raised warnings the previous
// scan did not have.
func (b *BlockSage) alert(ctx context.Context, result, prev *models.ScanResult) {
	if b.notificator == nil {
		return
	}
	wallet, err := b.repo.GetWallet(ctx, result.Address)
	if err != nil {
		if !errors.Is(err, models.ErrWalletNotFound) {
			b.logger.Error("Failed to load wallet for alert", "wallet", result.Address, "error", err)
		}
		return
	}
	if !wallet.Active || wallet.TelegramChatID == "" {
		return
	}

	escalated := result.Summary.OverallLabel.AtLeast(models.RiskHigh) &&
		(prev == nil || !prev.Summary.OverallLabel.AtLeast(models.RiskHigh))
	warnings := newWarnings(result, prev)
	if !escalated && len(warnings) == 0 {
		return
	}

	b.notificator.SendNotification(&models.Notification{
		Wallet:   result.Address,
		Label:    result.Summary.OverallLabel,
		Score:    result.Summary.OverallScore,
		Warnings: warnings,
	})
	metrics.AlertsSentTotal.Inc()
}

func newWarnings(result, prev *models.ScanResult) []string {
	known := make(map[string]bool)
	if prev != nil {
		for _, tx := range prev.Transactions {
			if tx.Warning != "" {
				known[tx.ID] = true
			}
		}
	}
	var out []string
	for _, tx := range result.Transactions {
		if tx.Warning != "" && !known[tx.ID] {
			out = append(out, tx.Warning+" ("+tx.TokenRef+")")
		}
	}
	return out
}
