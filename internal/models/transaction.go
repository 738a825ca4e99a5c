package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of money movement requested.
type TransactionType string

const (
	// TypeTransfer covers internal transfers and, with one side absent,
	// external credits and debits.
	TypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the lifecycle state of a transaction. Pending is the
// only non-terminal state; transitions are one-way.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxProcessed TransactionStatus = "processed"
	TxCancelled TransactionStatus = "cancelled"
	TxFailed    TransactionStatus = "failed"
)

// Transaction represents an intent to move money plus its lifecycle state.
// The request fields are set once at construction; the processor mutates
// only the lifecycle fields.
type Transaction struct {
	ID       string
	Type     TransactionType
	Amount   decimal.Decimal
	Currency Currency

	// Sender is nil for an external credit, Recipient is nil for an
	// external debit. Both nil is an invalid configuration and is
	// rejected at processing time, not at construction.
	Sender    Account
	Recipient Account

	FeeFixed decimal.Decimal
	External bool
	Priority int

	ScheduledAt time.Time

	Status        TransactionStatus
	FailureReason string
	Attempts      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ProcessedAt   time.Time
}

// NewTransaction builds a Pending transaction scheduled at scheduledAt.
func NewTransaction(id string, amount decimal.Decimal, currency Currency, sender, recipient Account, scheduledAt time.Time) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:          id,
		Type:        TypeTransfer,
		Amount:      amount,
		Currency:    currency,
		Sender:      sender,
		Recipient:   recipient,
		ScheduledAt: scheduledAt,
		Status:      TxPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkProcessed finalizes the transaction as successfully executed.
func (t *Transaction) MarkProcessed() {
	t.Status = TxProcessed
	t.FailureReason = ""
	t.ProcessedAt = time.Now().UTC()
	t.UpdatedAt = t.ProcessedAt
}

// MarkFailed finalizes the transaction as unrecoverable.
func (t *Transaction) MarkFailed(reason string) {
	t.Status = TxFailed
	t.FailureReason = reason
	t.UpdatedAt = time.Now().UTC()
}

// Cancel finalizes the transaction on external request.
func (t *Transaction) Cancel(reason string) {
	t.Status = TxCancelled
	t.FailureReason = reason
	t.UpdatedAt = time.Now().UTC()
}
