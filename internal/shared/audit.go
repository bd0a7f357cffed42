package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrAuditIncomplete rejects entries missing a mandatory column.
var ErrAuditIncomplete = errors.New("audit log requires action, entity and entity_id")

// AuditLog is one row of audit_logs. ActorID zero records an anonymous caller.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Validate checks the mandatory columns.
func (log AuditLog) Validate() error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return ErrAuditIncomplete
	}
	return nil
}

const insertAuditLog = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// AuditLogger appends catalog mutations to audit_logs.
type AuditLogger struct {
	db  execer
	now func() time.Time
}

// NewAuditLogger returns an AuditLogger writing through db.
func NewAuditLogger(db execer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

// Record persists the entry, stamping it with the current time when At is zero.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	meta := log.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audit meta: %w", err)
	}
	at := log.At
	if at.IsZero() {
		at = l.now()
	}
	_, err = l.db.Exec(ctx, insertAuditLog, log.ActorID, log.Action, log.Entity, log.EntityID, raw, at.UTC())
	return err
}
