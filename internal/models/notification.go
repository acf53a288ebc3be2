package models

import (
	"fmt"
	"strings"
)

// Notification is a risk alert for a wallet.
type Notification struct {
	Wallet   string    `json:"wallet"`
	Label    RiskLevel `json:"label"`
	Score    float64   `json:"score"`
	Warnings []string  `json:"warnings"`
}

func (n *Notification) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "BlockSage alert for %s\n", n.Wallet)
	fmt.Fprintf(&b, "Portfolio risk: %.1f (%s)", n.Score, n.Label.Label())
	for _, w := range n.Warnings {
		b.WriteString("\n- ")
		b.WriteString(w)
	}
	return b.String()
}
