// Package audit keeps the append-only, leveled audit trail of the pipeline.
// Records always land in memory; an optional store persists them as well.
package audit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// Log is the in-memory audit trail. Ordering is insertion order.
type Log struct {
	mu      sync.Mutex
	records []models.AuditRecord
	store   interfaces.AuditStore
	lg      *zap.SugaredLogger
}

// NewLog builds an audit log. store may be nil; persistence failures are
// logged operationally and never fail the caller.
func NewLog(store interfaces.AuditStore, lg *zap.SugaredLogger) *Log {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Log{store: store, lg: lg}
}

// Add appends one record.
func (l *Log) Add(level models.AuditLevel, message string, extras map[string]string) {
	rec := models.AuditRecord{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Extras:    extras,
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.SaveRecord(context.Background(), rec); err != nil {
			l.lg.Errorw("audit record not persisted", "error", err, "message", message)
		}
	}
}

// Info appends an informational record.
func (l *Log) Info(message string, extras map[string]string) {
	l.Add(models.AuditInfo, message, extras)
}

// Warning appends a warning record.
func (l *Log) Warning(message string, extras map[string]string) {
	l.Add(models.AuditWarning, message, extras)
}

// Error appends an error record.
func (l *Log) Error(message string, extras map[string]string) {
	l.Add(models.AuditError, message, extras)
}

// Records returns a copy of all records in insertion order.
func (l *Log) Records() []models.AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AuditRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Filter returns the records matching pred, in insertion order.
func (l *Log) Filter(pred func(models.AuditRecord) bool) []models.AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.AuditRecord
	for _, r := range l.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterLevel returns the records of exactly one level.
func (l *Log) FilterLevel(level models.AuditLevel) []models.AuditRecord {
	return l.Filter(func(r models.AuditRecord) bool { return r.Level == level })
}

// SuspiciousOperations returns the warning and error records.
func (l *Log) SuspiciousOperations() []models.AuditRecord {
	return l.Filter(func(r models.AuditRecord) bool {
		return r.Level == models.AuditWarning || r.Level == models.AuditError
	})
}

// ErrorStatistics counts error records by message prefix, the part before
// the first ":".
func (l *Log) ErrorStatistics() map[string]int {
	stats := make(map[string]int)
	for _, r := range l.FilterLevel(models.AuditError) {
		key, _, _ := strings.Cut(r.Message, ":")
		stats[key]++
	}
	return stats
}

// RiskProfile aggregates suspicious activity per account owner.
type RiskProfile struct {
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// ClientRiskProfiles groups warning/error counts by the owner_name extra.
func (l *Log) ClientRiskProfiles() map[string]RiskProfile {
	profiles := make(map[string]RiskProfile)
	for _, r := range l.SuspiciousOperations() {
		owner := r.Extras["owner_name"]
		if owner == "" {
			owner = "?"
		}
		p := profiles[owner]
		switch r.Level {
		case models.AuditWarning:
			p.Warnings++
		case models.AuditError:
			p.Errors++
		}
		profiles[owner] = p
	}
	return profiles
}

// Export writes the records to w, one line per record.
func (l *Log) Export(w io.Writer) error {
	for _, r := range l.Records() {
		var extras strings.Builder
		for k, v := range r.Extras {
			fmt.Fprintf(&extras, " %s=%s", k, v)
		}
		if _, err := fmt.Fprintf(w, "[%s] %s: %s%s\n", r.Timestamp.Format(time.RFC3339), r.Level, r.Message, extras.String()); err != nil {
			return fmt.Errorf("export audit log: %w", err)
		}
	}
	return nil
}
