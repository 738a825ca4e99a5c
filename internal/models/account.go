package models

import "github.com/shopspring/decimal"

// AccountStatus gates which operations an account accepts.
type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountFrozen AccountStatus = "frozen"
	AccountClosed AccountStatus = "closed"
)

// Account is the capability the pipeline needs from a money account.
// The concrete variants live in internal/account; the processor, queue and
// risk analyzer only ever see this interface.
type Account interface {
	ID() string
	OwnerName() string
	Status() AccountStatus
	Currency() Currency
	Balance() decimal.Decimal

	// Overdraftable reports whether the account may hold a negative
	// balance. The processor skips its own balance pre-check for such
	// accounts and lets Withdraw enforce the overdraft limit.
	Overdraftable() bool

	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error
}
