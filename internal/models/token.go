package models

// RiskLevel is the categorical bucket derived from a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Label returns the human readable label used by the dashboard.
func (l RiskLevel) Label() string {
	switch l {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Moderate Risk"
	case RiskHigh:
		return "High Risk"
	case RiskCritical:
		return "Critical Risk"
	default:
		return "Unknown Risk"
	}
}

// AtLeast reports whether l is as severe as other or more.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.rank() >= other.rank()
}

func (l RiskLevel) rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// ContractFlags are the contract attributes the classifier scores.
// Zero values are neutral; a nil LiquidityScore means unknown and is treated as 100.
type ContractFlags struct {
	// IsHoneypot is set when the contract allows buying but blocks selling.
	IsHoneypot bool `json:"is_honeypot"`
	// MintableByOwner is set when the owner can mint new supply.
	MintableByOwner bool `json:"mintable_by_owner"`
	// OwnerHoldingPct is the share of supply held by the deployer/owner (0-100).
	OwnerHoldingPct float64 `json:"owner_holding_pct"`
	// SellTaxPct is the tax applied on sells (0-100).
	SellTaxPct float64 `json:"sell_tax_pct"`
	// LiquidityScore rates pool depth (0-100), higher is better.
	LiquidityScore *float64 `json:"liquidity_score,omitempty"`
}

// Liquidity returns the liquidity score, defaulting to 100 when unknown.
func (f ContractFlags) Liquidity() float64 {
	if f.LiquidityScore == nil {
		return 100
	}
	return *f.LiquidityScore
}

// Pct is a helper for building flags with an explicit liquidity score.
func Pct(v float64) *float64 {
	return &v
}

// TokenRecord is a token holding from a portfolio snapshot together with its
// derived risk. Records are replaced wholesale on every rescan.
type TokenRecord struct {
	ID      string        `json:"id"`
	Symbol  string        `json:"symbol"`
	Name    string        `json:"name"`
	Balance float64       `json:"balance"`
	Value   float64       `json:"value"`
	Flags   ContractFlags `json:"flags"`

	RiskScore int       `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
	// Issues is a presentation-only rendering of Flags.
	Issues []string `json:"issues"`
}

// PortfolioSummary is the portfolio-level verdict recomputed from the current token set.
type PortfolioSummary struct {
	OverallScore         float64   `json:"overall_score"`
	OverallLabel         RiskLevel `json:"overall_label"`
	SuspiciousTokenCount int       `json:"suspicious_token_count"`
	RiskyContractCount   int       `json:"risky_contract_count"`
	VulnerableAssetCount int       `json:"vulnerable_asset_count"`
	TokenCount           int       `json:"token_count"`
}
