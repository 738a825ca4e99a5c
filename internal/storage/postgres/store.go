// Package postgres persists audit records with database/sql. Extras are
// stored as a JSONB column.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) SaveRecord(ctx context.Context, rec models.AuditRecord) error {
	const query = `INSERT INTO audit_records (level, message, created_at, extras)
	VALUES ($1, $2, $3, $4)`

	extras, err := json.Marshal(rec.Extras)
	if err != nil {
		return fmt.Errorf("encode extras: %w", err)
	}
	_, err = s.db.ExecContext(ctx, query, string(rec.Level), rec.Message, rec.Timestamp, extras)
	return err
}

func (s *AuditStore) ListRecords(ctx context.Context) ([]models.AuditRecord, error) {
	const query = `SELECT level, message, created_at, extras FROM audit_records ORDER BY created_at`
	return s.queryRecords(ctx, query)
}

func (s *AuditStore) ListByLevel(ctx context.Context, level models.AuditLevel) ([]models.AuditRecord, error) {
	const query = `SELECT level, message, created_at, extras FROM audit_records
	WHERE level = $1 ORDER BY created_at`
	return s.queryRecords(ctx, query, string(level))
}

func (s *AuditStore) queryRecords(ctx context.Context, query string, args ...any) ([]models.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AuditRecord
	for rows.Next() {
		var (
			rec    models.AuditRecord
			level  string
			extras []byte
		)
		if err := rows.Scan(&level, &rec.Message, &rec.Timestamp, &extras); err != nil {
			return nil, err
		}
		rec.Level = models.AuditLevel(level)
		if len(extras) > 0 {
			if err := json.Unmarshal(extras, &rec.Extras); err != nil {
				return nil, fmt.Errorf("decode extras: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

var _ interfaces.AuditStore = (*AuditStore)(nil)
