// Package risk implements deterministic token and portfolio risk scoring.
//
// Tokens are scored from their contract flags into a 0-100 score and a level.
// Transactions are tagged with the level of the token they move, and a set of
// scored tokens is rolled up into a value-weighted portfolio summary. Every
// function here is pure and safe for concurrent use.
package risk

import "github.com/core-coin/blocksage/internal/models"

// Scoring weights.
const (
	weightHoneypot   = 40.0
	weightMintable   = 25.0
	weightOwnerPct   = 0.30
	weightSellTax    = 0.20
	weightIlliquid   = 0.15
	neutralLiquidity = 100.0
)

// Level thresholds: score < 25 is low, < 50 medium, < 75 high, otherwise critical.
const (
	thresholdMedium   = 25
	thresholdHigh     = 50
	thresholdCritical = 75
)

// Issue category predicates.
const (
	suspiciousSellTaxPct = 20
	vulnerableOwnerPct   = 50
	vulnerableLiquidity  = 20
)

// LevelFor maps a score onto its risk level.
func LevelFor(score float64) models.RiskLevel {
	switch {
	case score < thresholdMedium:
		return models.RiskLow
	case score < thresholdHigh:
		return models.RiskMedium
	case score < thresholdCritical:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
