// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sunward/suncms/internal/model"
	"github.com/sunward/suncms/internal/util"
)

// auditTx writes an audit record on the caller's transaction, so the
// record commits or rolls back with the mutation it documents.
func auditTx(ctx context.Context, tx dbtx, actor model.Actor, action, entityType string, entityID int64, description string) error {
	actorID := util.NullInt64FromValue(actor.ID)
	if actor.ID == 0 {
		actorID.Valid = false
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		actorID, action, entityType, entityID, description, time.Now())
	if err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns the most recent audit entries, newest first.
func (s *Store) ListAuditLogs(ctx context.Context, limit int64) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, description, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}
	return entries, nil
}
