// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sunward/suncms/internal/model"
	"github.com/sunward/suncms/internal/util"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repositories need, so
// operations can join an already-open transaction instead of nesting one.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SyncTags reconciles a post's tag set in a dedicated transaction: names
// are normalized and deduplicated by slug, missing tags are inserted,
// and the post's tag links are fully replaced. Returns the normalized
// display names. On failure the transaction is rolled back and the
// original error returned.
func (s *Store) SyncTags(ctx context.Context, postID int64, names []string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	resolved, err := syncTagsTx(ctx, tx, postID, names)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing tag sync: %w", err)
	}
	return resolved, nil
}

// syncTagsTx performs the tag reconciliation on the caller's transaction.
func syncTagsTx(ctx context.Context, tx dbtx, postID int64, names []string) ([]string, error) {
	type resolvedTag struct {
		name string
		slug string
	}

	// Normalize and deduplicate by slug; the first-seen display name wins.
	seen := make(map[string]bool)
	var tags []resolvedTag
	for _, raw := range names {
		name := util.NormalizeTag(raw)
		if name == "" {
			continue
		}
		slug := util.Slugify(name)
		if seen[slug] {
			continue
		}
		seen[slug] = true
		tags = append(tags, resolvedTag{name: name, slug: slug})
	}

	// Resolve tag ids, inserting rows for tags seen for the first time.
	ids := make([]int64, 0, len(tags))
	display := make([]string, 0, len(tags))
	for _, t := range tags {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM blog_tags WHERE slug = ?`, t.slug).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			res, insErr := tx.ExecContext(ctx,
				`INSERT INTO blog_tags (name, slug) VALUES (?, ?)`, t.name, t.slug)
			if insErr != nil {
				return nil, fmt.Errorf("inserting tag %q: %w", t.slug, insErr)
			}
			id, insErr = res.LastInsertId()
			if insErr != nil {
				return nil, fmt.Errorf("resolving tag id: %w", insErr)
			}
		} else if err != nil {
			return nil, fmt.Errorf("looking up tag %q: %w", t.slug, err)
		}
		ids = append(ids, id)
		display = append(display, t.name)
	}

	// Replace the post's links wholesale rather than diffing.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM blog_post_tags WHERE post_id = ?`, postID); err != nil {
		return nil, fmt.Errorf("clearing post tags: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO blog_post_tags (post_id, tag_id) VALUES (?, ?)`,
			postID, id); err != nil {
			return nil, fmt.Errorf("linking tag %d: %w", id, err)
		}
	}

	return display, nil
}

// GetTagBySlug returns a single tag by its slug.
func (s *Store) GetTagBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	var t model.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM blog_tags WHERE slug = ?`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading tag: %w", err)
	}
	return &t, nil
}

// ListTags returns all tags with the number of published posts carrying
// each, ordered by name. Tags are never deleted, so unreferenced ones
// show a zero count.
func (s *Store) ListTags(ctx context.Context) ([]model.TagWithCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, COUNT(p.id)
		FROM blog_tags t
		LEFT JOIN blog_post_tags pt ON pt.tag_id = t.id
		LEFT JOIN blog_posts p ON p.id = pt.post_id AND p.status = 'published'
		GROUP BY t.id, t.name, t.slug
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []model.TagWithCount
	for rows.Next() {
		var t model.TagWithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	return tags, nil
}
