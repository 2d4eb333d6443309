// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sunward/suncms/internal/auth"
	"github.com/sunward/suncms/internal/model"
	"github.com/sunward/suncms/internal/store"
)

func TestSeedIdempotent(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("first Seed: %v", err)
	}

	admin, err := s.GetUserByEmail(ctx, store.SeedAdminEmail)
	if err != nil {
		t.Fatalf("admin missing after seed: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", admin.Role)
	}
	ok, err := auth.CheckPassword(store.SeedAdminPassword, admin.PasswordHash)
	if err != nil || !ok {
		t.Errorf("seed password does not verify: ok=%v err=%v", ok, err)
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) == 0 {
		t.Fatal("seed created no posts")
	}
	firstCount := len(posts)

	// Running again must not duplicate anything.
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	posts, err = s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) != firstCount {
		t.Errorf("post count %d after reseed, want %d", len(posts), firstCount)
	}
	users, err := s.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if users != 1 {
		t.Errorf("users = %d after reseed, want 1", users)
	}
}

func TestAuditTrail(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	post, err := s.Save(ctx, model.PostInput{Title: "Audited", BodyHTML: "<p>x</p>"}, testActor)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Publish(ctx, post.ID, true, testActor); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := s.Archive(ctx, post.ID, testActor); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	entries, err := s.ListAuditLogs(ctx, 10)
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// Newest first.
	wantActions := []string{
		model.AuditActionArchive,
		model.AuditActionPublish,
		model.AuditActionCreate,
	}
	for i, want := range wantActions {
		if entries[i].Action != want {
			t.Errorf("entries[%d].Action = %q, want %q", i, entries[i].Action, want)
		}
		if entries[i].EntityType != model.AuditEntityPost || entries[i].EntityID != post.ID {
			t.Errorf("entries[%d] entity = %s/%d", i, entries[i].EntityType, entries[i].EntityID)
		}
	}

	// Anonymous actor stored as NULL actor_id.
	if entries[0].ActorID.Valid {
		t.Error("actor id should be NULL for system actor")
	}
}

func TestEvents(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.CreateEvent(ctx, model.EventLevelWarning, model.EventCategoryStorage,
		"disk almost full", sql.NullInt64{}, "")
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := s.ListEvents(ctx, 5)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelWarning || e.Category != model.EventCategoryStorage {
		t.Errorf("event = %+v", e)
	}
	if e.Metadata != "{}" {
		t.Errorf("metadata = %q, want default empty object", e.Metadata)
	}
}
