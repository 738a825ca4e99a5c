package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/account"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// noon keeps the night rule out of the way unless a test wants it.
var noon = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func rubAccount(t *testing.T, name string) *account.Account {
	t.Helper()
	return account.NewBasic(account.Owner{Name: name}, models.RUB, decimal.NewFromInt(1_000_000))
}

func TestLargeAmountThresholdBoundary(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")

	level, reasons, _ := a.Assess(decimal.NewFromInt(99_999), models.RUB, sender, nil, noon)
	assert.NotEqual(t, High, level, "one unit below the threshold must not trigger")
	assert.NotContains(t, reasons, ReasonLargeAmount)

	level, reasons, _ = a.Assess(decimal.NewFromInt(100_000), models.RUB, sender, nil, noon)
	assert.Equal(t, High, level)
	assert.Contains(t, reasons, ReasonLargeAmount)
}

func TestFrequencyRuleTriggersOnThirdCallInWindow(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	amount := decimal.NewFromInt(10)

	level, _, _ := a.Assess(amount, models.RUB, sender, nil, noon)
	assert.NotEqual(t, High, level)
	level, _, _ = a.Assess(amount, models.RUB, sender, nil, noon.Add(10*time.Second))
	assert.NotEqual(t, High, level)

	level, reasons, _ := a.Assess(amount, models.RUB, sender, nil, noon.Add(20*time.Second))
	assert.Equal(t, High, level)
	assert.Contains(t, reasons, ReasonFrequentOps)
}

func TestFrequencyWindowSlides(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	amount := decimal.NewFromInt(10)

	a.Assess(amount, models.RUB, sender, nil, noon)
	a.Assess(amount, models.RUB, sender, nil, noon.Add(10*time.Second))

	// Third call lands after the first one left the window.
	level, reasons, _ := a.Assess(amount, models.RUB, sender, nil, noon.Add(65*time.Second))
	assert.NotEqual(t, High, level)
	assert.NotContains(t, reasons, ReasonFrequentOps)
}

func TestNovelRecipientEscalatesToMediumOnce(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	recipient := rubAccount(t, "Bob")

	level, reasons, _ := a.Assess(decimal.NewFromInt(10), models.RUB, sender, recipient, noon)
	assert.Equal(t, Medium, level)
	assert.Contains(t, reasons, ReasonNewRecipient)

	// Second transfer to the same counterpart is no longer novel. The
	// known-recipients set never expires.
	level, reasons, _ = a.Assess(decimal.NewFromInt(10), models.RUB, sender, recipient, noon.Add(time.Hour))
	assert.Equal(t, Low, level)
	assert.NotContains(t, reasons, ReasonNewRecipient)
}

func TestRecipientRecordedEvenWhenCallEndsHigh(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	recipient := rubAccount(t, "Bob")

	level, reasons, _ := a.Assess(decimal.NewFromInt(200_000), models.RUB, sender, recipient, noon)
	require.Equal(t, High, level)
	require.Contains(t, reasons, ReasonNewRecipient)

	level, reasons, _ = a.Assess(decimal.NewFromInt(10), models.RUB, sender, recipient, noon.Add(time.Hour))
	assert.Equal(t, Low, level)
	assert.NotContains(t, reasons, ReasonNewRecipient)
}

func TestNightWindowEscalatesToMedium(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	threeAM := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	level, reasons, _ := a.Assess(decimal.NewFromInt(10), models.RUB, sender, nil, threeAM)
	assert.Equal(t, Medium, level)
	assert.Contains(t, reasons, ReasonNightOperation)

	fiveAM := time.Date(2025, 6, 1, 5, 0, 0, 0, time.UTC)
	level, reasons, _ = a.Assess(decimal.NewFromInt(10), models.RUB, sender, nil, fiveAM)
	assert.Equal(t, Low, level, "window is half-open, 05:00 is day")
	assert.NotContains(t, reasons, ReasonNightOperation)
}

func TestHighIsNeverDowngraded(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	recipient := rubAccount(t, "Bob")
	threeAM := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	// Large amount fixes High; the novel-recipient and night signals still
	// append their reasons without touching the level.
	level, reasons, extras := a.Assess(decimal.NewFromInt(500_000), models.RUB, sender, recipient, threeAM)
	assert.Equal(t, High, level)
	assert.Equal(t, []string{ReasonLargeAmount, ReasonNewRecipient, ReasonNightOperation}, reasons)
	assert.Equal(t, "high", extras["risk_level"])
}

func TestExtrasCarryAssessmentContext(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sender := rubAccount(t, "Alice")
	recipient := rubAccount(t, "Bob")

	_, _, extras := a.Assess(decimal.NewFromInt(42), models.RUB, sender, recipient, noon)
	assert.Equal(t, sender.ID(), extras["sender_id"])
	assert.Equal(t, recipient.ID(), extras["recipient_id"])
	assert.Equal(t, "Alice", extras["owner_name"])
	assert.Equal(t, "42", extras["amount"])
	assert.Equal(t, "RUB", extras["currency"])
	assert.Equal(t, ReasonNewRecipient, extras["reasons"])
}

func TestUnknownCurrencyNeverTriggersLargeAmount(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.LargeAmountThresholds, models.CNY)
	a := NewAnalyzer(cfg)
	sender := rubAccount(t, "Alice")

	level, reasons, _ := a.Assess(decimal.NewFromInt(1_000_000_000), models.CNY, sender, nil, noon)
	assert.NotEqual(t, High, level)
	assert.NotContains(t, reasons, ReasonLargeAmount)
}

func TestHistoryIsKeyedBySender(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	alice := rubAccount(t, "Alice")
	carol := rubAccount(t, "Carol")
	amount := decimal.NewFromInt(10)

	a.Assess(amount, models.RUB, alice, nil, noon)
	a.Assess(amount, models.RUB, alice, nil, noon.Add(time.Second))

	level, _, _ := a.Assess(amount, models.RUB, carol, nil, noon.Add(2*time.Second))
	assert.NotEqual(t, High, level, "carol's first operation must not inherit alice's history")
}
