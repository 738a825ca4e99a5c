package account

import "errors"

// Domain errors raised by account operations. The processor treats all of
// them as terminal: a transaction hitting one is failed, never retried.
var (
	// ErrAccountFrozen means the account status forbids the operation.
	ErrAccountFrozen = errors.New("account is frozen")

	// ErrAccountClosed means the account has been closed.
	ErrAccountClosed = errors.New("account is closed")

	// ErrInvalidOperation covers bad amounts, unknown currencies, missing
	// conversion rates and malformed transaction configurations.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInsufficientFunds means the debit would breach the balance rule
	// of the account variant (zero floor, min balance or overdraft limit).
	ErrInsufficientFunds = errors.New("insufficient funds")
)
