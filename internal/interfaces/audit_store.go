package interfaces

import (
	"context"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// AuditStore persists audit records. The in-memory implementation backs
// tests and offline runs; the postgres one backs real deployments.
type AuditStore interface {
	SaveRecord(ctx context.Context, rec models.AuditRecord) error
	ListRecords(ctx context.Context) ([]models.AuditRecord, error)
	ListByLevel(ctx context.Context, level models.AuditLevel) ([]models.AuditRecord, error)
}
