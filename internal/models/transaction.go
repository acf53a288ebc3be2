package models

import "time"

type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
)

// Terminal reports whether no further status change is allowed.
func (s TxStatus) Terminal() bool {
	return s == TxCompleted || s == TxFailed
}

// TransactionRecord is a wallet transaction annotated with the risk of the token it moves.
type TransactionRecord struct {
	ID           string    `json:"id"`
	Direction    Direction `json:"direction"`
	TokenRef     string    `json:"token_ref"`
	Amount       float64   `json:"amount"`
	Counterparty string    `json:"counterparty"`
	Timestamp    time.Time `json:"timestamp"`
	Status       TxStatus  `json:"status"`

	// RiskLevel is copied from the referenced token when the transaction is tagged.
	RiskLevel RiskLevel `json:"risk_level,omitempty"`
	Warning   string    `json:"warning,omitempty"`
}
