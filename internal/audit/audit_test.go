package audit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/storage/memory"
)

func seededLog() *Log {
	l := NewLog(nil, nil)
	l.Info("risk assessment: low", map[string]string{"owner_name": "Alice"})
	l.Warning("risk assessment: medium", map[string]string{"owner_name": "Alice"})
	l.Error("temporary_error: connection reset", map[string]string{"owner_name": "Bob"})
	l.Error("temporary_error: broker down", map[string]string{"owner_name": "Bob"})
	l.Error("insufficient funds", nil)
	return l
}

func TestRecordsKeepInsertionOrder(t *testing.T) {
	l := seededLog()
	records := l.Records()
	require.Len(t, records, 5)
	assert.Equal(t, models.AuditInfo, records[0].Level)
	assert.Equal(t, models.AuditError, records[4].Level)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].Timestamp.Before(records[i-1].Timestamp))
	}
}

func TestFilterLevel(t *testing.T) {
	l := seededLog()
	assert.Len(t, l.FilterLevel(models.AuditInfo), 1)
	assert.Len(t, l.FilterLevel(models.AuditWarning), 1)
	assert.Len(t, l.FilterLevel(models.AuditError), 3)
}

func TestFilterPredicate(t *testing.T) {
	l := seededLog()
	got := l.Filter(func(r models.AuditRecord) bool {
		return r.Extras["owner_name"] == "Bob"
	})
	assert.Len(t, got, 2)
}

func TestSuspiciousOperations(t *testing.T) {
	l := seededLog()
	assert.Len(t, l.SuspiciousOperations(), 4)
}

func TestErrorStatisticsGroupByMessagePrefix(t *testing.T) {
	l := seededLog()
	stats := l.ErrorStatistics()
	assert.Equal(t, map[string]int{
		"temporary_error":    2,
		"insufficient funds": 1,
	}, stats)
}

func TestClientRiskProfiles(t *testing.T) {
	l := seededLog()
	profiles := l.ClientRiskProfiles()
	assert.Equal(t, RiskProfile{Warnings: 1, Errors: 0}, profiles["Alice"])
	assert.Equal(t, RiskProfile{Warnings: 0, Errors: 2}, profiles["Bob"])
	assert.Equal(t, RiskProfile{Warnings: 0, Errors: 1}, profiles["?"], "records without owner bucket under ?")
}

func TestExportWritesOneLinePerRecord(t *testing.T) {
	l := seededLog()
	var sb strings.Builder
	require.NoError(t, l.Export(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "info: risk assessment: low")
	assert.Contains(t, lines[0], "owner_name=Alice")
}

func TestRecordsLandInConfiguredStore(t *testing.T) {
	store := memory.NewAuditStore()
	l := NewLog(store, nil)
	l.Warning("risk assessment: medium", map[string]string{"tx_id": "tx-1"})
	l.Info("risk assessment: low", nil)

	stored, err := store.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "tx-1", stored[0].Extras["tx_id"])

	warnings, err := store.ListByLevel(context.Background(), models.AuditWarning)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}
