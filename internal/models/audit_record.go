package models

import "time"

// AuditLevel is the severity of an audit record.
type AuditLevel string

const (
	AuditInfo    AuditLevel = "info"
	AuditWarning AuditLevel = "warning"
	AuditError   AuditLevel = "error"
)

// AuditRecord is a single append-only audit entry.
type AuditRecord struct {
	Level     AuditLevel        `json:"level"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Extras    map[string]string `json:"extras,omitempty"`
}
