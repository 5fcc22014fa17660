package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/kristalball/internal/model"
)

// AuditFilter narrows audit log queries. Zero values place no restriction.
type AuditFilter struct {
	EntityType string
	EntityID   int64
	UserID     int64
	Limit      int
}

// InsertAudit appends an entry to the audit log. details is marshalled to JSON.
func InsertAudit(ctx context.Context, db DBTX, userID int64, action, entityType string, entityID int64, details any) error {
	var payload sql.NullString
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding audit details: %w", err)
		}
		payload = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, entity_type, entity_id, details, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, action, entityType, entityID, payload, model.AuditStatusSuccess,
	)
	if err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// ListAudit returns audit entries, newest first.
func ListAudit(ctx context.Context, db DBTX, f AuditFilter) ([]model.AuditEntry, error) {
	var where conditions
	if f.EntityType != "" {
		where.add("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		where.add("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		where.add("user_id = ?", f.UserID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	args := append(where.args, limit)

	rows, err := db.QueryContext(ctx,
		`SELECT id, timestamp, user_id, action, entity_type, entity_id, details, status
		 FROM audit_log`+where.String()+` ORDER BY id DESC LIMIT ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.Action, &e.EntityType, &e.EntityID,
			&details, &e.Status); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if details.Valid {
			e.Details = json.RawMessage(details.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountAudit returns the number of audit entries for an entity.
func CountAudit(ctx context.Context, db DBTX, entityType string, entityID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE entity_type = ? AND entity_id = ?`, entityType, entityID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting audit entries: %w", err)
	}
	return n, nil
}
