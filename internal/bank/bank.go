// Package bank is the client/account directory the pipeline draws accounts
// from. It is a collaborator, not part of the processing core: the core
// only consumes the account operations, and feeds outcomes back for the
// directory's reporting.
package bank

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/account"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

var (
	ErrClientNotFound       = errors.New("client not found")
	ErrClientBlocked        = errors.New("client is blocked")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUnknownAccountType   = errors.New("unknown account type")
	ErrOperationsRestricted = errors.New("operations are restricted between 00:00 and 05:00")
)

// failed-login thresholds: two misses flag the client, three block them.
const (
	suspiciousAfterFailures = 2
	blockedAfterFailures    = 3
)

// AccountSpec describes the account to open. Only the fields relevant to
// the chosen type are read.
type AccountSpec struct {
	Type           account.Type
	Currency       models.Currency
	InitialBalance decimal.Decimal

	// savings
	MinBalance          decimal.Decimal
	MonthlyInterestRate decimal.Decimal

	// premium
	OverdraftLimit decimal.Decimal
	WithdrawFee    decimal.Decimal

	// investment
	Portfolio map[account.AssetClass]decimal.Decimal
}

// Bank holds the client registry and account index. Now is injectable so
// the restricted-hours rule is testable.
type Bank struct {
	mu           sync.Mutex
	name         string
	clients      map[string]*Client
	accounts     map[string]*account.Account
	credentials  map[string]string
	failedLogins map[string]int
	suspicious   []string

	Now func() time.Time
}

// New creates an empty bank directory.
func New(name string) *Bank {
	return &Bank{
		name:         name,
		clients:      make(map[string]*Client),
		accounts:     make(map[string]*account.Account),
		credentials:  make(map[string]string),
		failedLogins: make(map[string]int),
		Now:          time.Now,
	}
}

// Name returns the bank's display name.
func (b *Bank) Name() string { return b.name }

// Operations are forbidden during [00:00, 05:00) local to the injected
// clock; attempts are recorded as suspicious.
func isRestrictedTime(t time.Time) bool {
	return t.Hour() < 5
}

func (b *Bank) ensureOpsAllowed() error {
	if isRestrictedTime(b.Now()) {
		b.suspicious = append(b.suspicious, "operation attempted during restricted hours")
		return ErrOperationsRestricted
	}
	return nil
}

func (b *Bank) ensureClientActive(clientID string) (*Client, error) {
	client, ok := b.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	if client.Status == ClientBlocked {
		return nil, ErrClientBlocked
	}
	return client, nil
}

// AddClient registers a client with credentials for authentication.
func (b *Bank) AddClient(client *Client, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client.ID] = client
	b.credentials[client.ID] = password
	b.failedLogins[client.ID] = 0
}

// Client looks up a directory entry.
func (b *Bank) Client(id string) (*Client, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.clients[id]
	return c, ok
}

// Authenticate checks credentials. Two consecutive failures mark the client
// suspicious, three block them; a success resets the counter.
func (b *Bank) Authenticate(clientID, password string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	client, ok := b.clients[clientID]
	if !ok || client.Status == ClientBlocked {
		return false
	}
	if b.credentials[clientID] == password {
		b.failedLogins[clientID] = 0
		return true
	}
	b.failedLogins[clientID]++
	if b.failedLogins[clientID] >= suspiciousAfterFailures {
		client.MarkSuspicious()
		b.suspicious = append(b.suspicious, fmt.Sprintf("client %s: repeated failed logins", clientID))
	}
	if b.failedLogins[clientID] >= blockedAfterFailures {
		client.Status = ClientBlocked
	}
	return false
}

// OpenAccount opens an account of the requested type for a client and
// returns the new account id.
func (b *Bank) OpenAccount(clientID string, spec AccountSpec) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOpsAllowed(); err != nil {
		return "", err
	}
	client, err := b.ensureClientActive(clientID)
	if err != nil {
		return "", err
	}

	owner := account.Owner{Name: client.FullName, Email: client.Contacts["email"]}
	var acct *account.Account
	switch spec.Type {
	case account.TypeBasic, "":
		acct = account.NewBasic(owner, spec.Currency, spec.InitialBalance)
	case account.TypeSavings:
		acct, err = account.NewSavings(owner, spec.Currency, spec.InitialBalance, spec.MinBalance, spec.MonthlyInterestRate)
	case account.TypePremium:
		acct, err = account.NewPremium(owner, spec.Currency, spec.InitialBalance, spec.OverdraftLimit, spec.WithdrawFee)
	case account.TypeInvestment:
		acct, err = account.NewInvestment(owner, spec.Currency, spec.InitialBalance, spec.Portfolio)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountType, spec.Type)
	}
	if err != nil {
		return "", err
	}

	b.accounts[acct.ID()] = acct
	client.AccountIDs = append(client.AccountIDs, acct.ID())
	return acct.ID(), nil
}

// Account looks up an account by id.
func (b *Bank) Account(id string) (*account.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[id]
	return acct, ok
}

// Deposit credits an account, applying the restricted-hours rule.
func (b *Bank) Deposit(accountID string, amount decimal.Decimal) error {
	acct, err := b.guardedAccount(accountID)
	if err != nil {
		return err
	}
	return acct.Deposit(amount)
}

// Withdraw debits an account, applying the restricted-hours rule.
func (b *Bank) Withdraw(accountID string, amount decimal.Decimal) error {
	acct, err := b.guardedAccount(accountID)
	if err != nil {
		return err
	}
	return acct.Withdraw(amount)
}

func (b *Bank) guardedAccount(accountID string) (*account.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOpsAllowed(); err != nil {
		return nil, err
	}
	acct, ok := b.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// SuspiciousLog returns a copy of recorded suspicious events.
func (b *Bank) SuspiciousLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.suspicious))
	copy(out, b.suspicious)
	return out
}
