// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Audit actions
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionPublish = "publish"
	AuditActionUnpub   = "unpublish"
	AuditActionArchive = "archive"
	AuditActionSeed    = "seed"
)

// Audit entity types
const (
	AuditEntityPost = "post"
	AuditEntityTag  = "tag"
	AuditEntityUser = "user"
)

// AuditEntry is an append-only record of an administrative action.
type AuditEntry struct {
	ID          int64
	ActorID     sql.NullInt64
	Action      string
	EntityType  string
	EntityID    int64
	Description string
	CreatedAt   time.Time
}
