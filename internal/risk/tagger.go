package risk

import (
	"fmt"

	"github.com/core-coin/blocksage/internal/models"
)

// AirdropWarning is attached to incoming transfers of risky tokens the wallet did not hold before.
const AirdropWarning = "Suspicious token received, possible airdrop scam"

// Tag copies the token's risk level onto a copy of tx and raises the airdrop
// warning for unsolicited risky receives. A terminal transaction that was
// already tagged is returned unchanged.
func Tag(tx models.TransactionRecord, tokenLevel models.RiskLevel, previouslyHeld bool) models.TransactionRecord {
	if tx.Status.Terminal() && tx.RiskLevel != "" {
		return tx
	}
	out := tx
	out.RiskLevel = tokenLevel
	out.Warning = ""
	if tx.Direction == models.DirectionReceive && tokenLevel.AtLeast(models.RiskHigh) && !previouslyHeld {
		out.Warning = AirdropWarning
	}
	return out
}

// Transition moves tx to a new status. Only pending -> completed and
// pending -> failed are legal; anything else returns a ValidationError and
// the original record.
func Transition(tx models.TransactionRecord, to models.TxStatus) (models.TransactionRecord, error) {
	if tx.Status != models.TxPending || !to.Terminal() {
		return tx, &models.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("illegal transition %q -> %q for transaction %s", tx.Status, to, tx.ID),
		}
	}
	out := tx
	out.Status = to
	return out, nil
}
