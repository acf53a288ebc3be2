package risk

import (
	"math"
	"sort"

	"github.com/core-coin/blocksage/internal/models"
)

// Aggregate rolls scored tokens into a portfolio summary. The overall score
// is the value-weighted mean of token scores, or the plain mean when the
// portfolio has no value. Tokens are summed in identifier order so any
// permutation of the input yields the same summary.
func Aggregate(tokens []models.TokenRecord) models.PortfolioSummary {
	summary := models.PortfolioSummary{
		OverallLabel: models.RiskLow,
		TokenCount:   len(tokens),
	}
	if len(tokens) == 0 {
		return summary
	}

	ordered := make([]models.TokenRecord, len(tokens))
	copy(ordered, tokens)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.RiskScore < b.RiskScore
	})

	totalValue := 0.0
	for _, t := range ordered {
		totalValue += t.Value
	}

	weighted := 0.0
	for _, t := range ordered {
		w := 1.0 / float64(len(ordered))
		if totalValue > 0 {
			w = t.Value / totalValue
		}
		weighted += w * float64(t.RiskScore)

		if isSuspicious(t.Flags) {
			summary.SuspiciousTokenCount++
		}
		if t.Flags.MintableByOwner {
			summary.RiskyContractCount++
		}
		if isVulnerable(t.Flags) {
			summary.VulnerableAssetCount++
		}
	}

	score := math.Round(weighted*10) / 10
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	summary.OverallScore = score
	summary.OverallLabel = LevelFor(score)
	return summary
}

func isSuspicious(f models.ContractFlags) bool {
	return f.IsHoneypot || f.SellTaxPct > suspiciousSellTaxPct
}

func isVulnerable(f models.ContractFlags) bool {
	return f.OwnerHoldingPct > vulnerableOwnerPct || f.Liquidity() < vulnerableLiquidity
}
