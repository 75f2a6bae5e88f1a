package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/leadbridge/leadbridge/internal/platform/db"
)

// Audit actions recorded by the API and the worker.
const (
	AuditCatalogReset  = "catalog.reset"
	AuditCatalogSync   = "catalog.sync"
	AuditProductDelete = "product.delete"
	AuditLeadDelete    = "lead.delete"
	AuditUserApprove   = "user.approve"
	AuditUserPromote   = "user.promote"
	AuditUserDelete    = "user.delete"
)

// AuditLog represents a record stored in audit_logs. A zero ActorID marks a
// system action such as a scheduled sync.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db db.DBTX
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(conn db.DBTX) *AuditLogger {
	return &AuditLogger{db: conn}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.Meta == nil {
		log.Meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var actor *int64
	if log.ActorID != 0 {
		actor = &log.ActorID
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, actor, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
