package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionOutcome is published once per terminal transaction transition
// (processed, failed or blocked by risk control).
type TransactionOutcome struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SenderID      string          `json:"sender_id,omitempty"`
	RecipientID   string          `json:"recipient_id,omitempty"`
	Attempts      int             `json:"attempts"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
