// Package account implements the money-account collaborator of the
// transaction pipeline. The behavioral variants (basic, savings, premium,
// investment) are a closed set on one struct: a type tag plus per-variant
// policy fields injected at construction, not subclassing.
package account

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// Type tags the behavior variant of an account.
type Type string

const (
	TypeBasic      Type = "basic"
	TypeSavings    Type = "savings"
	TypePremium    Type = "premium"
	TypeInvestment Type = "investment"
)

// AssetClass is a portfolio bucket on an investment account.
type AssetClass string

const (
	AssetStocks AssetClass = "stocks"
	AssetBonds  AssetClass = "bonds"
	AssetETF    AssetClass = "etf"
)

// Default annual growth rates used by ProjectYearlyGrowth when the caller
// supplies none.
var defaultGrowthRates = map[AssetClass]decimal.Decimal{
	AssetStocks: decimal.NewFromFloat(0.08),
	AssetBonds:  decimal.NewFromFloat(0.03),
	AssetETF:    decimal.NewFromFloat(0.06),
}

// Owner identifies the person an account belongs to.
type Owner struct {
	Name  string
	Email string
}

// Account is a single money account. All balance mutation happens under the
// account's own mutex so concurrent transactions touching the same account
// serialize on it.
type Account struct {
	mu       sync.Mutex
	id       string
	typ      Type
	owner    Owner
	status   models.AccountStatus
	currency models.Currency
	balance  decimal.Decimal

	// savings policy
	minBalance          decimal.Decimal
	monthlyInterestRate decimal.Decimal

	// premium policy
	overdraftLimit decimal.Decimal
	withdrawFee    decimal.Decimal

	// investment policy
	portfolio map[AssetClass]decimal.Decimal
}

var _ models.Account = (*Account)(nil)

func newAccount(typ Type, owner Owner, currency models.Currency, initial decimal.Decimal) *Account {
	if initial.IsNegative() {
		initial = decimal.Zero
	}
	return &Account{
		id:       uuid.NewString(),
		typ:      typ,
		owner:    owner,
		status:   models.AccountActive,
		currency: currency,
		balance:  initial,
	}
}

// NewBasic opens a plain account with a zero balance floor.
func NewBasic(owner Owner, currency models.Currency, initial decimal.Decimal) *Account {
	return newAccount(TypeBasic, owner, currency, initial)
}

// NewSavings opens a savings account. Withdrawals may not take the balance
// below minBalance; ApplyMonthlyInterest accrues monthlyRate on the balance.
func NewSavings(owner Owner, currency models.Currency, initial, minBalance, monthlyRate decimal.Decimal) (*Account, error) {
	if minBalance.IsNegative() {
		return nil, fmt.Errorf("min balance must not be negative: %w", ErrInvalidOperation)
	}
	if monthlyRate.IsNegative() {
		return nil, fmt.Errorf("interest rate must not be negative: %w", ErrInvalidOperation)
	}
	a := newAccount(TypeSavings, owner, currency, initial)
	a.minBalance = minBalance
	a.monthlyInterestRate = monthlyRate
	return a, nil
}

// NewPremium opens an overdraft-capable account. Every withdrawal debits an
// extra fixed fee; the balance may drop to -overdraftLimit.
func NewPremium(owner Owner, currency models.Currency, initial, overdraftLimit, withdrawFee decimal.Decimal) (*Account, error) {
	if overdraftLimit.IsNegative() {
		return nil, fmt.Errorf("overdraft limit must not be negative: %w", ErrInvalidOperation)
	}
	if withdrawFee.IsNegative() {
		return nil, fmt.Errorf("withdraw fee must not be negative: %w", ErrInvalidOperation)
	}
	a := newAccount(TypePremium, owner, currency, initial)
	a.overdraftLimit = overdraftLimit
	a.withdrawFee = withdrawFee
	return a, nil
}

// NewInvestment opens an investment account holding a portfolio of asset
// shares. Shares must be non-negative and sum to at most 1; the remainder is
// treated as cash.
func NewInvestment(owner Owner, currency models.Currency, initial decimal.Decimal, portfolio map[AssetClass]decimal.Decimal) (*Account, error) {
	shares := map[AssetClass]decimal.Decimal{
		AssetStocks: decimal.Zero,
		AssetBonds:  decimal.Zero,
		AssetETF:    decimal.Zero,
	}
	total := decimal.Zero
	for class, share := range portfolio {
		if _, ok := shares[class]; !ok {
			return nil, fmt.Errorf("unknown asset class %q: %w", class, ErrInvalidOperation)
		}
		if share.IsNegative() {
			return nil, fmt.Errorf("asset share must not be negative: %w", ErrInvalidOperation)
		}
		shares[class] = share
		total = total.Add(share)
	}
	if total.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("portfolio shares must sum to at most 1: %w", ErrInvalidOperation)
	}
	a := newAccount(TypeInvestment, owner, currency, initial)
	a.portfolio = shares
	return a, nil
}

func (a *Account) ID() string                      { return a.id }
func (a *Account) AccountType() Type               { return a.typ }
func (a *Account) OwnerName() string               { return a.owner.Name }
func (a *Account) Currency() models.Currency       { return a.currency }
func (a *Account) Overdraftable() bool             { return a.typ == TypePremium }
func (a *Account) OverdraftLimit() decimal.Decimal { return a.overdraftLimit }
func (a *Account) WithdrawFee() decimal.Decimal    { return a.withdrawFee }

// Status returns the current gating status.
func (a *Account) Status() models.AccountStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// SetStatus freezes, closes or reactivates the account.
func (a *Account) SetStatus(status models.AccountStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

func (a *Account) ensureActive() error {
	switch a.status {
	case models.AccountFrozen:
		return ErrAccountFrozen
	case models.AccountClosed:
		return ErrAccountClosed
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive: %w", ErrInvalidOperation)
	}
	return nil
}

// Deposit increases the balance by amount.
func (a *Account) Deposit(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureActive(); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	a.balance = a.balance.Add(amount)
	return nil
}

// Withdraw decreases the balance by amount, applying the balance rule of the
// account variant. Premium accounts debit amount plus the fixed fee in one
// step and may go negative down to the overdraft limit.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureActive(); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	switch a.typ {
	case TypePremium:
		total := amount.Add(a.withdrawFee)
		if a.balance.Sub(total).LessThan(a.overdraftLimit.Neg()) {
			return fmt.Errorf("overdraft limit exceeded: %w", ErrInsufficientFunds)
		}
		a.balance = a.balance.Sub(total)
	case TypeSavings:
		if a.balance.Sub(amount).LessThan(a.minBalance) {
			return fmt.Errorf("balance would drop below minimum: %w", ErrInsufficientFunds)
		}
		a.balance = a.balance.Sub(amount)
	default:
		if amount.GreaterThan(a.balance) {
			return ErrInsufficientFunds
		}
		a.balance = a.balance.Sub(amount)
	}
	return nil
}

// ApplyMonthlyInterest accrues one month of interest on a savings account.
// No-op unless the account is active and carries a positive rate.
func (a *Account) ApplyMonthlyInterest() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.typ != TypeSavings || a.status != models.AccountActive {
		return
	}
	if a.monthlyInterestRate.LessThanOrEqual(decimal.Zero) {
		return
	}
	a.balance = a.balance.Add(a.balance.Mul(a.monthlyInterestRate))
}

// ProjectYearlyGrowth estimates the balance one year out using the weighted
// portfolio rates. Unallocated shares count as cash with no yield. Inactive
// accounts are projected flat.
func (a *Account) ProjectYearlyGrowth(rates map[AssetClass]decimal.Decimal) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.typ != TypeInvestment || a.status != models.AccountActive {
		return a.balance
	}
	weighted := decimal.Zero
	for class, share := range a.portfolio {
		rate, ok := defaultGrowthRates[class]
		if r, supplied := rates[class]; supplied {
			rate = r
		} else if !ok {
			continue
		}
		weighted = weighted.Add(share.Mul(rate))
	}
	return a.balance.Add(a.balance.Mul(weighted))
}
