package risk

import (
	"math"
	"strconv"

	"github.com/core-coin/blocksage/internal/models"
)

// Score computes the risk score and level for a set of contract flags.
// Percentages outside [0,100] are clamped, so Score never fails.
func Score(flags models.ContractFlags) (int, models.RiskLevel) {
	raw := 0.0
	if flags.IsHoneypot {
		raw += weightHoneypot
	}
	if flags.MintableByOwner {
		raw += weightMintable
	}
	raw += clampPct(flags.OwnerHoldingPct) * weightOwnerPct
	raw += clampPct(flags.SellTaxPct) * weightSellTax
	raw += (neutralLiquidity - clampPct(flags.Liquidity())) * weightIlliquid

	score := int(math.Round(raw))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score, LevelFor(float64(score))
}

// ClassifyToken validates a token record and returns a copy carrying its
// derived score, level and issue list.
func ClassifyToken(rec models.TokenRecord) (models.TokenRecord, error) {
	if err := ValidateToken(rec); err != nil {
		return models.TokenRecord{}, err
	}
	out := rec
	out.RiskScore, out.RiskLevel = Score(rec.Flags)
	out.Issues = Issues(rec.Flags)
	return out, nil
}

// ValidateToken rejects negative amounts and percentages outside [0,100].
func ValidateToken(rec models.TokenRecord) error {
	if rec.ID == "" {
		return &models.ValidationError{Field: "id", Reason: "token id is required"}
	}
	if rec.Balance < 0 || math.IsNaN(rec.Balance) {
		return &models.ValidationError{Field: "balance", Reason: "must be non-negative"}
	}
	if rec.Value < 0 || math.IsNaN(rec.Value) || math.IsInf(rec.Value, 0) {
		return &models.ValidationError{Field: "value", Reason: "must be a non-negative finite number"}
	}
	return ValidateFlags(rec.Flags)
}

// ValidateFlags checks every percentage is within [0,100].
func ValidateFlags(flags models.ContractFlags) error {
	checks := []struct {
		field string
		value float64
	}{
		{"owner_holding_pct", flags.OwnerHoldingPct},
		{"sell_tax_pct", flags.SellTaxPct},
		{"liquidity_score", flags.Liquidity()},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > 100 || math.IsNaN(c.value) {
			return &models.ValidationError{Field: c.field, Reason: "must be between 0 and 100"}
		}
	}
	return nil
}

// Issues renders flags as the free-text issue list shown next to a token.
// The categorical predicates in Aggregate are the source of truth; this is display only.
func Issues(flags models.ContractFlags) []string {
	issues := []string{}
	if flags.IsHoneypot {
		issues = append(issues, "Honeypot contract", "Unable to sell")
	}
	if flags.MintableByOwner {
		issues = append(issues, "Centralized control")
	}
	if flags.OwnerHoldingPct > vulnerableOwnerPct {
		issues = append(issues, "Deployer holds "+formatPct(flags.OwnerHoldingPct))
	}
	if flags.SellTaxPct > suspiciousSellTaxPct {
		issues = append(issues, "High sell tax")
	}
	if flags.Liquidity() < vulnerableLiquidity {
		issues = append(issues, "Liquidity issues")
	}
	return issues
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
