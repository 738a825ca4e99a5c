// Package risk scores prospective transactions from historical sender
// behavior. Four rules run in a fixed order, each only ever escalating the
// level: large amount, operation frequency, novel recipient, night window.
package risk

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// Level classifies how suspicious a single assessment is.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Reason strings attached to assessments, in rule-evaluation order.
const (
	ReasonLargeAmount    = "large amount"
	ReasonFrequentOps    = "frequent operations"
	ReasonNewRecipient   = "new recipient counterpart"
	ReasonNightOperation = "night operation"
)

// Config holds the thresholds an Analyzer scores against. It is injected at
// construction so independent bank instances never share state.
type Config struct {
	// LargeAmountThresholds maps currency to the amount at which a
	// transaction is flagged High. Currencies without an entry never
	// trigger the rule.
	LargeAmountThresholds map[models.Currency]decimal.Decimal

	// FrequencyWindow and FrequencyLimit flag a sender performing
	// FrequencyLimit or more assessed operations within the window.
	FrequencyWindow time.Duration
	FrequencyLimit  int

	// NightFrom and NightTo bound the night window as offsets from
	// midnight, [NightFrom, NightTo).
	NightFrom time.Duration
	NightTo   time.Duration
}

// DefaultConfig mirrors the stock thresholds of the bank.
func DefaultConfig() Config {
	return Config{
		LargeAmountThresholds: map[models.Currency]decimal.Decimal{
			models.RUB: decimal.NewFromInt(100_000),
			models.USD: decimal.NewFromInt(2_000),
			models.EUR: decimal.NewFromInt(2_000),
			models.KZT: decimal.NewFromInt(2_000_000),
			models.CNY: decimal.NewFromInt(15_000),
		},
		FrequencyWindow: 60 * time.Second,
		FrequencyLimit:  3,
		NightFrom:       0,
		NightTo:         5 * time.Hour,
	}
}

// Analyzer is a stateful rule engine. Per-sender frequency history is
// pruned by the sliding window; the seen-recipient set is deliberately kept
// for the lifetime of the instance, acting as a permanent known-contacts
// list.
type Analyzer struct {
	mu              sync.Mutex
	cfg             Config
	history         map[string][]time.Time
	knownRecipients map[string]map[string]struct{}
}

// NewAnalyzer builds an Analyzer with the given thresholds. Zero window or
// limit fall back to the defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.FrequencyWindow <= 0 {
		cfg.FrequencyWindow = 60 * time.Second
	}
	if cfg.FrequencyLimit <= 0 {
		cfg.FrequencyLimit = 3
	}
	if cfg.NightTo == 0 {
		cfg.NightTo = 5 * time.Hour
	}
	return &Analyzer{
		cfg:             cfg,
		history:         make(map[string][]time.Time),
		knownRecipients: make(map[string]map[string]struct{}),
	}
}

func accountID(a models.Account) string {
	if a == nil {
		return ""
	}
	return a.ID()
}

func ownerName(a models.Account) string {
	if a == nil {
		return ""
	}
	return a.OwnerName()
}

func (a *Analyzer) isNight(now time.Time) bool {
	sinceMidnight := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second
	return sinceMidnight >= a.cfg.NightFrom && sinceMidnight < a.cfg.NightTo
}

// Assess scores one prospective transaction. The level starts Low; any
// High-triggering rule fixes High for this call, Medium-triggering rules
// apply only while the level is still Low. Analyzer state is mutated on
// every call, even when the transaction is later blocked. Amount and
// currency are assumed already validated upstream.
func (a *Analyzer) Assess(amount decimal.Decimal, currency models.Currency, sender, recipient models.Account, now time.Time) (Level, []string, map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	level := Low
	var reasons []string

	if threshold, ok := a.cfg.LargeAmountThresholds[currency]; ok && amount.GreaterThanOrEqual(threshold) {
		level = High
		reasons = append(reasons, ReasonLargeAmount)
	}

	senderID := accountID(sender)
	if senderID != "" {
		cutoff := now.Add(-a.cfg.FrequencyWindow)
		hist := a.history[senderID][:0]
		for _, ts := range a.history[senderID] {
			if !ts.Before(cutoff) {
				hist = append(hist, ts)
			}
		}
		hist = append(hist, now)
		a.history[senderID] = hist
		if len(hist) >= a.cfg.FrequencyLimit {
			level = High
			reasons = append(reasons, ReasonFrequentOps)
		}
	}

	if senderID != "" {
		recipientID := accountID(recipient)
		known, ok := a.knownRecipients[senderID]
		if !ok {
			known = make(map[string]struct{})
			a.knownRecipients[senderID] = known
		}
		if recipientID != "" {
			if _, seen := known[recipientID]; !seen {
				reasons = append(reasons, ReasonNewRecipient)
				if level == Low {
					level = Medium
				}
				known[recipientID] = struct{}{}
			}
		}
	}

	if a.isNight(now) {
		reasons = append(reasons, ReasonNightOperation)
		if level == Low {
			level = Medium
		}
	}

	owner := ownerName(sender)
	if owner == "" {
		owner = ownerName(recipient)
	}
	extras := map[string]string{
		"sender_id":    senderID,
		"recipient_id": accountID(recipient),
		"owner_name":   owner,
		"amount":       amount.String(),
		"currency":     string(currency),
		"reasons":      strings.Join(reasons, ", "),
		"risk_level":   string(level),
	}
	return level, reasons, extras
}
