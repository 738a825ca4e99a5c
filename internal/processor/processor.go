// Package processor drains the transaction queue and executes funds
// movement with currency conversion, fee handling and retry-with-backoff.
// A configured risk analyzer gates transactions before any money moves.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/account"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/audit"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models/events"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/queue"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/risk"
)

// RatePair is an ordered currency pair with a registered conversion rate.
type RatePair struct {
	From models.Currency
	To   models.Currency
}

// Config holds the processor knobs, injected at construction.
type Config struct {
	// ExternalFeeFixed is the surcharge added to the fixed fee of
	// transactions carrying the externality flag, in transaction currency.
	ExternalFeeFixed decimal.Decimal

	// MaxRetries bounds how often a transient failure is retried before
	// the transaction fails for good.
	MaxRetries int

	// Rates maps ordered currency pairs to conversion factors. Lookup is
	// direct: no cross-rate derivation happens at conversion time.
	Rates map[RatePair]decimal.Decimal

	// OutcomeTopic is the topic terminal outcomes are published to.
	OutcomeTopic string
}

// DefaultRates pre-computes every currency pair from RUB base values. The
// derivation happens here, once; Convert itself only ever does a direct
// lookup.
func DefaultRates() map[RatePair]decimal.Decimal {
	base := map[models.Currency]decimal.Decimal{
		models.RUB: decimal.NewFromInt(1),
		models.USD: decimal.NewFromInt(100),
		models.EUR: decimal.NewFromInt(110),
		models.KZT: decimal.NewFromFloat(0.21),
		models.CNY: decimal.NewFromInt(14),
	}
	rates := make(map[RatePair]decimal.Decimal, len(base)*(len(base)-1))
	for from, fromBase := range base {
		for to, toBase := range base {
			if from == to {
				continue
			}
			rates[RatePair{From: from, To: to}] = fromBase.Div(toBase)
		}
	}
	return rates
}

// Processor owns no transaction lifetimes: it pops from the queue, mutates
// transactions in place and either finalizes or requeues them. Terminal
// errors never propagate to the caller; they become transaction state plus
// an error-log entry.
type Processor struct {
	queue     *queue.Queue
	cfg       Config
	analyzer  *risk.Analyzer
	auditLog  *audit.Log
	publisher interfaces.EventPublisher
	lg        *zap.SugaredLogger

	mu       sync.Mutex
	errorLog []string
}

// New builds a processor. analyzer, auditLog and publisher may each be nil;
// the corresponding stage is skipped cleanly.
func New(q *queue.Queue, cfg Config, analyzer *risk.Analyzer, auditLog *audit.Log, publisher interfaces.EventPublisher, lg *zap.SugaredLogger) *Processor {
	if cfg.Rates == nil {
		cfg.Rates = DefaultRates()
	}
	if cfg.OutcomeTopic == "" {
		cfg.OutcomeTopic = "transaction_outcomes"
	}
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Processor{
		queue:     q,
		cfg:       cfg,
		analyzer:  analyzer,
		auditLog:  auditLog,
		publisher: publisher,
		lg:        lg,
	}
}

// Convert applies the registered rate for the ordered pair. Same currency
// is identity; a missing rate is a hard invalid-operation failure.
func (p *Processor) Convert(amount decimal.Decimal, from, to models.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rate, ok := p.cfg.Rates[RatePair{From: from, To: to}]
	if !ok {
		return decimal.Zero, fmt.Errorf("no conversion rate registered for %s->%s: %w", from, to, account.ErrInvalidOperation)
	}
	return amount.Mul(rate), nil
}

// ProcessNext handles the next ready transaction. It returns false only
// when nothing was ready; every handled transaction, including a failed or
// risk-blocked one, returns true.
func (p *Processor) ProcessNext(now time.Time) bool {
	tx := p.queue.PopReady(now)
	if tx == nil {
		return false
	}

	if p.analyzer != nil {
		level, reasons, extras := p.analyzer.Assess(tx.Amount, tx.Currency, tx.Sender, tx.Recipient, now)
		p.auditAssessment(tx.ID, level, extras)
		if level == risk.High {
			reason := "blocked by risk control"
			if len(reasons) > 0 {
				reason += ": " + strings.Join(reasons, ", ")
			}
			tx.MarkFailed(reason)
			p.lg.Warnw("transaction blocked", "tx_id", tx.ID, "reasons", reasons)
			p.publishOutcome(tx)
			return true
		}
	}

	err := p.execute(tx)
	switch {
	case err == nil:
		tx.MarkProcessed()
		p.lg.Infow("transaction processed", "tx_id", tx.ID, "amount", tx.Amount, "currency", tx.Currency)
		p.publishOutcome(tx)
	case isTerminal(err):
		tx.MarkFailed(err.Error())
		p.appendError(fmt.Sprintf("%s: %v", tx.ID, err))
		p.lg.Warnw("transaction failed", "tx_id", tx.ID, "error", err)
		p.publishOutcome(tx)
	default:
		tx.Attempts++
		if tx.Attempts > p.cfg.MaxRetries {
			tx.MarkFailed(fmt.Sprintf("temporary_error: %v", err))
			p.appendError(fmt.Sprintf("%s: temporary_error: %v", tx.ID, err))
			p.lg.Warnw("transaction retries exhausted", "tx_id", tx.ID, "attempts", tx.Attempts, "error", err)
			p.publishOutcome(tx)
		} else {
			delay := time.Duration(tx.Attempts) * time.Second
			p.queue.Requeue(tx, delay, now)
			p.lg.Infow("transaction requeued", "tx_id", tx.ID, "attempt", tx.Attempts, "delay", delay)
		}
	}
	return true
}

// RunAll processes ready transactions until none remain or safetyLimit
// iterations have run. The limit guards against livelock from transactions
// that keep requeuing themselves at or before now. Returns the number of
// transactions handled.
func (p *Processor) RunAll(now time.Time, safetyLimit int) int {
	count := 0
	for count < safetyLimit {
		if !p.ProcessNext(now) {
			break
		}
		count++
	}
	return count
}

// ErrorLog returns a copy of the unrecoverable-failure entries so far.
func (p *Processor) ErrorLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.errorLog))
	copy(out, p.errorLog)
	return out
}

func (p *Processor) appendError(entry string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorLog = append(p.errorLog, entry)
}

func (p *Processor) auditAssessment(txID string, level risk.Level, extras map[string]string) {
	if p.auditLog == nil {
		return
	}
	tagged := make(map[string]string, len(extras)+1)
	for k, v := range extras {
		tagged[k] = v
	}
	tagged["tx_id"] = txID
	msg := fmt.Sprintf("risk assessment: %s", level)
	switch level {
	case risk.High:
		p.auditLog.Error(msg, tagged)
	case risk.Medium:
		p.auditLog.Warning(msg, tagged)
	default:
		p.auditLog.Info(msg, tagged)
	}
}

func (p *Processor) publishOutcome(tx *models.Transaction) {
	if p.publisher == nil {
		return
	}
	event := events.TransactionOutcome{
		TransactionID: tx.ID,
		Status:        string(tx.Status),
		FailureReason: tx.FailureReason,
		Amount:        tx.Amount,
		Currency:      string(tx.Currency),
		Attempts:      tx.Attempts,
		OccurredAt:    tx.UpdatedAt,
	}
	if tx.Sender != nil {
		event.SenderID = tx.Sender.ID()
	}
	if tx.Recipient != nil {
		event.RecipientID = tx.Recipient.ID()
	}
	if err := p.publisher.Publish(context.Background(), p.cfg.OutcomeTopic, event); err != nil {
		p.lg.Errorw("outcome event not published", "tx_id", tx.ID, "error", err)
	}
}

func isTerminal(err error) bool {
	return errors.Is(err, account.ErrAccountFrozen) ||
		errors.Is(err, account.ErrAccountClosed) ||
		errors.Is(err, account.ErrInsufficientFunds) ||
		errors.Is(err, account.ErrInvalidOperation)
}

func ensureAccountActive(a models.Account) error {
	if a == nil {
		return nil
	}
	switch a.Status() {
	case models.AccountFrozen:
		return account.ErrAccountFrozen
	case models.AccountClosed:
		return account.ErrAccountClosed
	}
	return nil
}

func (p *Processor) execute(tx *models.Transaction) error {
	if tx.Type != models.TypeTransfer {
		return fmt.Errorf("unsupported transaction type %q: %w", tx.Type, account.ErrInvalidOperation)
	}
	if tx.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive: %w", account.ErrInvalidOperation)
	}

	feeTotal := tx.FeeFixed
	if tx.External {
		feeTotal = feeTotal.Add(p.cfg.ExternalFeeFixed)
	}

	if err := ensureAccountActive(tx.Sender); err != nil {
		return err
	}
	if err := ensureAccountActive(tx.Recipient); err != nil {
		return err
	}

	switch {
	case tx.Sender != nil && tx.Recipient != nil:
		return p.internalTransfer(tx, feeTotal)
	case tx.Sender == nil && tx.Recipient != nil:
		return p.externalCredit(tx, feeTotal)
	case tx.Sender != nil:
		return p.externalDebit(tx, feeTotal)
	default:
		return fmt.Errorf("transaction has neither sender nor recipient: %w", account.ErrInvalidOperation)
	}
}

func (p *Processor) internalTransfer(tx *models.Transaction, feeTotal decimal.Decimal) error {
	sender, recipient := tx.Sender, tx.Recipient

	debitAmount, err := p.Convert(tx.Amount, tx.Currency, sender.Currency())
	if err != nil {
		return err
	}
	debitFee := decimal.Zero
	if feeTotal.IsPositive() {
		debitFee, err = p.Convert(feeTotal, tx.Currency, sender.Currency())
		if err != nil {
			return err
		}
	}

	totalDebit := debitAmount.Add(debitFee)
	// Overdraft-capable accounts enforce their own limit inside Withdraw;
	// everyone else gets a pre-check so neither partial debit can happen.
	if !sender.Overdraftable() && totalDebit.GreaterThan(sender.Balance()) {
		return fmt.Errorf("insufficient funds for transfer: %w", account.ErrInsufficientFunds)
	}

	// Principal first, then fee. With a tight overdraft limit the order
	// decides which call fails, so it must stay fixed.
	if err := sender.Withdraw(debitAmount); err != nil {
		return err
	}
	if debitFee.IsPositive() {
		if err := sender.Withdraw(debitFee); err != nil {
			return err
		}
	}

	creditAmount, err := p.Convert(tx.Amount, tx.Currency, recipient.Currency())
	if err != nil {
		return err
	}
	return recipient.Deposit(creditAmount)
}

func (p *Processor) externalCredit(tx *models.Transaction, feeTotal decimal.Decimal) error {
	creditAmount := tx.Amount.Sub(feeTotal)
	if creditAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("credit amount must be positive after fee: %w", account.ErrInvalidOperation)
	}
	creditAmount, err := p.Convert(creditAmount, tx.Currency, tx.Recipient.Currency())
	if err != nil {
		return err
	}
	return tx.Recipient.Deposit(creditAmount)
}

func (p *Processor) externalDebit(tx *models.Transaction, feeTotal decimal.Decimal) error {
	debitAmount, err := p.Convert(tx.Amount.Add(feeTotal), tx.Currency, tx.Sender.Currency())
	if err != nil {
		return err
	}
	return tx.Sender.Withdraw(debitAmount)
}
