// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sunward/suncms/internal/auth"
	"github.com/sunward/suncms/internal/model"
)

// Default admin credentials used when seeding an empty database. The
// password must be changed on first login in any real deployment.
const (
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "admin123"
	SeedAdminName     = "Administrator"
)

// Seed ensures the database has an administrator account and, when the
// post table is empty, a set of sample posts. Safe to run on every
// startup.
func (s *Store) Seed(ctx context.Context) error {
	actorID, err := s.seedAdmin(ctx)
	if err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	if err := s.SeedDefault(ctx, model.Actor{ID: actorID, Name: SeedAdminName}); err != nil {
		return fmt.Errorf("seeding default posts: %w", err)
	}
	return nil
}

func (s *Store) seedAdmin(ctx context.Context) (int64, error) {
	existing, err := s.GetUserByEmail(ctx, SeedAdminEmail)
	if err == nil {
		return existing.ID, nil
	}

	hash, err := auth.HashPassword(SeedAdminPassword)
	if err != nil {
		return 0, fmt.Errorf("hashing admin password: %w", err)
	}

	id, err := s.CreateUser(ctx, SeedAdminEmail, hash, SeedAdminName, model.RoleAdmin)
	if err != nil {
		return 0, err
	}
	slog.Info("created seed admin user", "email", SeedAdminEmail)
	return id, nil
}

// SeedDefault populates an empty post table with sample content so a
// fresh install has something to show. Posts are created through Save,
// so they go through sanitization, slug and cover resolution like any
// other post. Does nothing when posts already exist.
func (s *Store) SeedDefault(ctx context.Context, actor model.Actor) error {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&count); err != nil {
		return fmt.Errorf("counting posts: %w", err)
	}
	if count > 0 {
		return nil
	}

	slog.Info("seeding sample posts")

	samples := []model.PostInput{
		{
			Title: "Welcome to Sunward",
			BodyHTML: `<p>This is your new blog. Posts start as drafts, move to
				pending review, and become visible once published.</p>
				<p>Edit or delete this post from the admin area.</p>`,
			AuthorName: actor.Name,
			Status:     model.PostStatusPublished,
			Tags:       []string{"Announcements"},
		},
		{
			Title: "Writing Your First Post",
			BodyHTML: `<p>Posts are written in rich text. Headings, lists, links,
				block quotes and code blocks are preserved.</p>
				<pre><code>echo "hello from suncms"</code></pre>
				<p>Anything outside the allowed markup is stripped before saving.</p>`,
			AuthorName: actor.Name,
			Status:     model.PostStatusPublished,
			Tags:       []string{"Guides", "Getting Started"},
		},
		{
			Title: "A Draft to Experiment With",
			BodyHTML: `<p>This post stays out of public listings until you publish
				it. Use it to try the editor.</p>`,
			AuthorName: actor.Name,
			Status:     model.PostStatusDraft,
			Tags:       []string{"Guides"},
		},
	}

	for _, input := range samples {
		if _, err := s.Save(ctx, input, actor); err != nil {
			return fmt.Errorf("seeding post %q: %w", input.Title, err)
		}
	}
	return nil
}
