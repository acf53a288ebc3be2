package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/blocksage/internal/models"
)

func TestScore_HoneypotClampsToCritical(t *testing.T) {
	score, level := Score(models.ContractFlags{
		IsHoneypot:      true,
		MintableByOwner: true,
		OwnerHoldingPct: 80,
		SellTaxPct:      0,
		LiquidityScore:  models.Pct(5),
	})
	assert.Equal(t, 100, score)
	assert.Equal(t, models.RiskCritical, level)
}

func TestScore_NeutralFlagsAreZero(t *testing.T) {
	score, level := Score(models.ContractFlags{})
	assert.Equal(t, 0, score)
	assert.Equal(t, models.RiskLow, level)

	// explicit full liquidity is the same as unknown liquidity
	score, _ = Score(models.ContractFlags{LiquidityScore: models.Pct(100)})
	assert.Equal(t, 0, score)
}

func TestScore_Thresholds(t *testing.T) {
	tests := []struct {
		name  string
		flags models.ContractFlags
		score int
		level models.RiskLevel
	}{
		{"owner 80 only", models.ContractFlags{OwnerHoldingPct: 80}, 24, models.RiskLow},
		{"mintable", models.ContractFlags{MintableByOwner: true}, 25, models.RiskMedium},
		{"honeypot", models.ContractFlags{IsHoneypot: true}, 40, models.RiskMedium},
		{"honeypot and owner 34", models.ContractFlags{IsHoneypot: true, OwnerHoldingPct: 34}, 50, models.RiskHigh},
		{"honeypot and mintable", models.ContractFlags{IsHoneypot: true, MintableByOwner: true}, 65, models.RiskHigh},
		{"honeypot mintable owner 34", models.ContractFlags{IsHoneypot: true, MintableByOwner: true, OwnerHoldingPct: 34}, 75, models.RiskCritical},
		{"sell tax and illiquid", models.ContractFlags{SellTaxPct: 50, LiquidityScore: models.Pct(0)}, 25, models.RiskMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := Score(tt.flags)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestScore_OutOfRangeIsClamped(t *testing.T) {
	score, _ := Score(models.ContractFlags{OwnerHoldingPct: 500, SellTaxPct: -20, LiquidityScore: models.Pct(-10)})
	assert.Equal(t, 45, score) // 100*0.3 + 0 + 100*0.15
}

func TestScore_RangeAndMonotonicity(t *testing.T) {
	pcts := []float64{0, 10, 25, 50, 75, 90, 100}
	for _, honeypot := range []bool{false, true} {
		for _, mintable := range []bool{false, true} {
			for _, owner := range pcts {
				for _, tax := range pcts {
					for i, liq := range pcts {
						base := models.ContractFlags{
							IsHoneypot:      honeypot,
							MintableByOwner: mintable,
							OwnerHoldingPct: owner,
							SellTaxPct:      tax,
							LiquidityScore:  models.Pct(liq),
						}
						s, _ := Score(base)
						require.GreaterOrEqual(t, s, 0)
						require.LessOrEqual(t, s, 100)

						up := base
						up.IsHoneypot = true
						sUp, _ := Score(up)
						require.GreaterOrEqual(t, sUp, s, "honeypot must not lower the score")

						up = base
						up.MintableByOwner = true
						sUp, _ = Score(up)
						require.GreaterOrEqual(t, sUp, s, "mintable must not lower the score")

						up = base
						up.OwnerHoldingPct = owner + 10
						sUp, _ = Score(up)
						require.GreaterOrEqual(t, sUp, s, "owner holding must not lower the score")

						up = base
						up.SellTaxPct = tax + 10
						sUp, _ = Score(up)
						require.GreaterOrEqual(t, sUp, s, "sell tax must not lower the score")

						if i+1 < len(pcts) {
							down := base
							down.LiquidityScore = models.Pct(pcts[i+1])
							sDown, _ := Score(down)
							require.LessOrEqual(t, sDown, s, "liquidity must not raise the score")
						}
					}
				}
			}
		}
	}
}

func TestClassifyToken(t *testing.T) {
	rec := models.TokenRecord{
		ID:      "epump",
		Symbol:  "EPUMP",
		Balance: 5000000,
		Value:   120,
		Flags: models.ContractFlags{
			IsHoneypot:      true,
			MintableByOwner: true,
			OwnerHoldingPct: 80,
			LiquidityScore:  models.Pct(5),
		},
	}
	out, err := ClassifyToken(rec)
	require.NoError(t, err)
	assert.Equal(t, 100, out.RiskScore)
	assert.Equal(t, models.RiskCritical, out.RiskLevel)
	assert.Contains(t, out.Issues, "Honeypot contract")
	assert.Contains(t, out.Issues, "Deployer holds 80%")
	assert.Contains(t, out.Issues, "Liquidity issues")

	// input is not mutated
	assert.Zero(t, rec.RiskScore)
	assert.Empty(t, rec.RiskLevel)
}

func TestClassifyToken_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rec   models.TokenRecord
		field string
	}{
		{"missing id", models.TokenRecord{}, "id"},
		{"negative balance", models.TokenRecord{ID: "a", Balance: -1}, "balance"},
		{"negative value", models.TokenRecord{ID: "a", Value: -0.01}, "value"},
		{"owner over 100", models.TokenRecord{ID: "a", Flags: models.ContractFlags{OwnerHoldingPct: 101}}, "owner_holding_pct"},
		{"negative tax", models.TokenRecord{ID: "a", Flags: models.ContractFlags{SellTaxPct: -1}}, "sell_tax_pct"},
		{"liquidity over 100", models.TokenRecord{ID: "a", Flags: models.ContractFlags{LiquidityScore: models.Pct(150)}}, "liquidity_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifyToken(tt.rec)
			var vErr *models.ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestLevelLabels(t *testing.T) {
	assert.Equal(t, "Low Risk", LevelFor(24.9).Label())
	assert.Equal(t, "Moderate Risk", LevelFor(25).Label())
	assert.Equal(t, "High Risk", LevelFor(74.9).Label())
	assert.Equal(t, "Critical Risk", LevelFor(75).Label())
}
