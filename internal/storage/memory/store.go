// Package memory is the in-memory AuditStore implementation, used by tests
// and offline runs.
package memory

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// AuditStore keeps records in a slice, thread-safe for concurrent writers.
type AuditStore struct {
	mu      sync.Mutex
	records []models.AuditRecord
}

// NewAuditStore returns an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{records: make([]models.AuditRecord, 0)}
}

// SaveRecord appends one record.
func (s *AuditStore) SaveRecord(_ context.Context, rec models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// ListRecords returns a copy of everything stored so far.
func (s *AuditStore) ListRecords(_ context.Context) ([]models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// ListByLevel returns a copy of the records at exactly the given level.
func (s *AuditStore) ListByLevel(_ context.Context, level models.AuditLevel) ([]models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditRecord
	for _, r := range s.records {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out, nil
}

var _ interfaces.AuditStore = (*AuditStore)(nil)
