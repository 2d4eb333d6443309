// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sunward/suncms/internal/cache"
	"github.com/sunward/suncms/internal/cover"
	"github.com/sunward/suncms/internal/model"
	"github.com/sunward/suncms/internal/sanitize"
	"github.com/sunward/suncms/internal/util"
)

// excerptMaxLen caps excerpts derived from the body text.
const excerptMaxLen = 200

// listCacheTTL is how long cached published listings stay valid between
// invalidations.
const listCacheTTL = 5 * time.Minute

// publishedList is the cached shape of one ListPublished page.
type publishedList struct {
	Total int64               `json:"total"`
	Posts []model.PostSummary `json:"posts"`
}

// Store is the relational repository for posts, tags and audit logs.
type Store struct {
	db        *sql.DB
	listCache *cache.TypedCache[publishedList]
}

// New creates a Store over an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnableListCache turns on read-through caching for ListPublished using
// the given backend. The cache is cleared on every mutating operation,
// so hand the Store its own Cacher instance.
func (s *Store) EnableListCache(c cache.Cacher) {
	s.listCache = cache.NewTypedCache[publishedList](c, listCacheTTL)
}

// invalidateListCache drops all cached listings after a mutation.
func (s *Store) invalidateListCache(ctx context.Context) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Clear(ctx); err != nil {
		slog.Warn("clearing post list cache", "error", err)
	}
}

// validCoverURI reports whether a caller-supplied cover image reference
// is acceptable: absolute http(s), root-relative, or an inline image
// data URI. Protocol-relative URLs (//host) are rejected.
func validCoverURI(uri string) bool {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return true
	case strings.HasPrefix(uri, "data:image/"):
		return true
	case strings.HasPrefix(uri, "/") && !strings.HasPrefix(uri, "//"):
		return true
	}
	return false
}

// isDuplicateSlug detects the slug unique-constraint violation.
func isDuplicateSlug(err error) bool {
	return err != nil && strings.Contains(err.Error(), "blog_posts.slug")
}

// deriveExcerpt produces a short plain-text excerpt from body text.
// The cut lands on a rune boundary so multi-byte text is never split.
func deriveExcerpt(bodyText string) string {
	if len(bodyText) <= excerptMaxLen {
		return bodyText
	}
	end := excerptMaxLen
	for end > 0 && !utf8.RuneStart(bodyText[end]) {
		end--
	}
	cut := bodyText[:end]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

// Save inserts (input.ID == 0) or updates a post. The body is sanitized,
// the slug resolved from the title when absent, unacceptable cover
// references replaced with a generated placeholder, and tags
// synchronized — all in a single transaction, with an audit record.
//
// published_at is set when the post first enters the published status,
// preserved while it stays published, and forced to NULL for any other
// status. Re-publishing a post that went back to draft therefore gets a
// fresh timestamp.
func (s *Store) Save(ctx context.Context, input model.PostInput, actor model.Actor) (*model.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, model.NewValidationError("title", "Title is required")
	}

	bodyHTML := sanitize.HTML(input.BodyHTML)
	bodyText := sanitize.PlainText(bodyHTML)
	if bodyText == "" {
		return nil, model.NewValidationError("body", "Body must not be empty")
	}

	status := input.Status
	if status == "" {
		status = model.PostStatusDraft
	}
	if !model.IsValidPostStatus(status) {
		return nil, model.NewValidationError("status", fmt.Sprintf("Invalid status %q", status))
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = util.Slugify(title)
	} else if !util.IsValidSlug(slug) {
		slug = util.Slugify(slug)
	}

	excerpt := strings.TrimSpace(input.Excerpt)
	if excerpt == "" {
		excerpt = deriveExcerpt(bodyText)
	}

	coverImage := strings.TrimSpace(input.CoverImage)
	coverAlt := strings.TrimSpace(input.CoverImageAlt)
	if !validCoverURI(coverImage) {
		generatedURI, generatedAlt := cover.Placeholder(title, excerpt)
		coverImage = generatedURI
		if coverAlt == "" {
			coverAlt = generatedAlt
		}
	}

	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	postID := input.ID
	action := model.AuditActionUpdate

	if postID == 0 {
		action = model.AuditActionCreate

		publishedAt := sql.NullTime{}
		if status == model.PostStatusPublished {
			publishedAt = util.NullTimeFromValue(now)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO blog_posts
				(title, slug, excerpt, body_html, body_text, cover_image, cover_image_alt,
				 author_name, status, published_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			title, slug, excerpt, bodyHTML, bodyText, coverImage, coverAlt,
			strings.TrimSpace(input.AuthorName), status, publishedAt, now, now)
		if err != nil {
			if isDuplicateSlug(err) {
				return nil, model.ErrDuplicateSlug
			}
			return nil, fmt.Errorf("inserting post: %w", err)
		}
		postID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("resolving post id: %w", err)
		}
	} else {
		var current sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT published_at FROM blog_posts WHERE id = ?`, postID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("loading post: %w", err)
		}

		publishedAt := sql.NullTime{}
		if status == model.PostStatusPublished {
			if current.Valid {
				publishedAt = current
			} else {
				publishedAt = util.NullTimeFromValue(now)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE blog_posts
			SET title = ?, slug = ?, excerpt = ?, body_html = ?, body_text = ?,
			    cover_image = ?, cover_image_alt = ?, author_name = ?,
			    status = ?, published_at = ?, updated_at = ?
			WHERE id = ?`,
			title, slug, excerpt, bodyHTML, bodyText,
			coverImage, coverAlt, strings.TrimSpace(input.AuthorName),
			status, publishedAt, now, postID)
		if err != nil {
			if isDuplicateSlug(err) {
				return nil, model.ErrDuplicateSlug
			}
			return nil, fmt.Errorf("updating post: %w", err)
		}
	}

	if _, err := syncTagsTx(ctx, tx, postID, input.Tags); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("%s post %q (slug %q, status %s)", action, title, slug, status)
	if err := auditTx(ctx, tx, actor, action, model.AuditEntityPost, postID, description); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing save: %w", err)
	}

	s.invalidateListCache(ctx)
	return s.GetByID(ctx, postID)
}

// Publish toggles a post between published and draft. When publishing a
// post without a cover image, a placeholder cover is generated; its alt
// text only overwrites a blank one. Returns the refreshed post.
func (s *Store) Publish(ctx context.Context, postID int64, publish bool, actor model.Actor) (*model.Post, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		title      string
		excerpt    string
		coverImage string
		coverAlt   string
		current    sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `
		SELECT title, excerpt, cover_image, cover_image_alt, published_at
		FROM blog_posts WHERE id = ?`, postID).
		Scan(&title, &excerpt, &coverImage, &coverAlt, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}

	status := model.PostStatusDraft
	action := model.AuditActionUnpub
	publishedAt := sql.NullTime{}
	if publish {
		status = model.PostStatusPublished
		action = model.AuditActionPublish
		if current.Valid {
			publishedAt = current
		} else {
			publishedAt = util.NullTimeFromValue(now)
		}
		if coverImage == "" {
			generatedURI, generatedAlt := cover.Placeholder(title, excerpt)
			coverImage = generatedURI
			if coverAlt == "" {
				coverAlt = generatedAlt
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE blog_posts
		SET status = ?, published_at = ?, cover_image = ?, cover_image_alt = ?, updated_at = ?
		WHERE id = ?`,
		status, publishedAt, coverImage, coverAlt, now, postID)
	if err != nil {
		return nil, fmt.Errorf("updating post status: %w", err)
	}

	description := fmt.Sprintf("%s post %q", action, title)
	if err := auditTx(ctx, tx, actor, action, model.AuditEntityPost, postID, description); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing publish: %w", err)
	}

	s.invalidateListCache(ctx)
	return s.GetByID(ctx, postID)
}

// Archive retires a post: status becomes archived and published_at is
// cleared unconditionally. Fails with ErrNotFound when no row matches.
func (s *Store) Archive(ctx context.Context, postID int64, actor model.Actor) error {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE blog_posts
		SET status = ?, published_at = NULL, updated_at = ?
		WHERE id = ?`,
		model.PostStatusArchived, now, postID)
	if err != nil {
		return fmt.Errorf("archiving post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking archive result: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}

	description := fmt.Sprintf("archive post %d", postID)
	if err := auditTx(ctx, tx, actor, model.AuditActionArchive, model.AuditEntityPost, postID, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing archive: %w", err)
	}

	s.invalidateListCache(ctx)
	return nil
}

const postColumns = `id, title, slug, excerpt, body_html, body_text,
	cover_image, cover_image_alt, author_name, status, published_at,
	created_at, updated_at`

func scanPost(row *sql.Row) (*model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.BodyHTML, &p.BodyText,
		&p.CoverImage, &p.CoverImageAlt, &p.AuthorName, &p.Status, &p.PublishedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}
	return &p, nil
}

// loadPostTags fetches the display names of a post's tags, sorted.
func (s *Store) loadPostTags(ctx context.Context, postID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name
		FROM blog_tags t
		JOIN blog_post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = ?
		ORDER BY t.name`, postID)
	if err != nil {
		return nil, fmt.Errorf("loading post tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag names: %w", err)
	}
	return names, nil
}

// GetByID returns one post with its tags, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, postID)
	p, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	if p.Tags, err = s.loadPostTags(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySlug returns one post by slug. Unless includeDrafts is set, only
// published posts are visible.
func (s *Store) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE slug = ?`
	if !includeDrafts {
		query += ` AND status = 'published'`
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, err
	}
	if p.Tags, err = s.loadPostTags(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

const summaryColumns = `p.id, p.title, p.slug, p.excerpt, p.cover_image,
	p.cover_image_alt, p.author_name, p.status, p.published_at, p.updated_at`

func (s *Store) scanSummaries(rows *sql.Rows) ([]model.PostSummary, error) {
	defer func() { _ = rows.Close() }()

	var posts []model.PostSummary
	for rows.Next() {
		var p model.PostSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.CoverImage,
			&p.CoverImageAlt, &p.AuthorName, &p.Status, &p.PublishedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning post summary: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post summaries: %w", err)
	}
	return posts, nil
}

// attachTags fills in tag names for a slice of summaries.
func (s *Store) attachTags(ctx context.Context, posts []model.PostSummary) error {
	for i := range posts {
		tags, err := s.loadPostTags(ctx, posts[i].ID)
		if err != nil {
			return err
		}
		posts[i].Tags = tags
	}
	return nil
}

// ListPublished returns the total count and one page of published post
// summaries, newest first (publish date descending, id descending as
// tiebreak). Filters narrow by free-text search over title, excerpt and
// body text, and by tag slug.
func (s *Store) ListPublished(ctx context.Context, filters model.PostFilters, limit, offset int64) (int64, []model.PostSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("posts:published:%s|%s|%d|%d", filters.Search, filters.Tag, limit, offset)
	if s.listCache != nil {
		if cached, ok := s.listCache.Get(ctx, cacheKey); ok {
			return cached.Total, cached.Posts, nil
		}
	}

	where := `p.status = 'published'`
	var args []any

	if filters.Search != "" {
		where += ` AND (p.title LIKE ? OR p.excerpt LIKE ? OR p.body_text LIKE ?)`
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filters.Tag != "" {
		where += ` AND EXISTS (
			SELECT 1 FROM blog_post_tags pt
			JOIN blog_tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = ?)`
		args = append(args, filters.Tag)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM blog_posts p WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("counting published posts: %w", err)
	}

	listQuery := `SELECT ` + summaryColumns + ` FROM blog_posts p WHERE ` + where +
		` ORDER BY p.published_at DESC, p.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return 0, nil, fmt.Errorf("listing published posts: %w", err)
	}

	posts, err := s.scanSummaries(rows)
	if err != nil {
		return 0, nil, err
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return 0, nil, err
	}

	if s.listCache != nil {
		_ = s.listCache.Set(ctx, cacheKey, &publishedList{Total: total, Posts: posts})
	}
	return total, posts, nil
}

// ListAll returns every post for the admin overview, most recently
// updated first.
func (s *Store) ListAll(ctx context.Context) ([]model.PostSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM blog_posts p ORDER BY p.updated_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	posts, err := s.scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Adjacent returns the published neighbors of a post by publish time:
// prev is the next-older post, next the next-newer. Either may be nil,
// and both are nil when the post itself is not published.
func (s *Store) Adjacent(ctx context.Context, postID int64) (prev, next *model.PostSummary, err error) {
	current, err := s.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if !current.PublishedAt.Valid {
		return nil, nil, nil
	}
	at := current.PublishedAt.Time

	prevRows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+` FROM blog_posts p
		WHERE p.status = 'published'
		  AND (p.published_at < ? OR (p.published_at = ? AND p.id < ?))
		ORDER BY p.published_at DESC, p.id DESC
		LIMIT 1`, at, at, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading previous post: %w", err)
	}
	prevs, err := s.scanSummaries(prevRows)
	if err != nil {
		return nil, nil, err
	}
	if len(prevs) > 0 {
		prev = &prevs[0]
	}

	nextRows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+` FROM blog_posts p
		WHERE p.status = 'published'
		  AND (p.published_at > ? OR (p.published_at = ? AND p.id > ?))
		ORDER BY p.published_at ASC, p.id ASC
		LIMIT 1`, at, at, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading next post: %w", err)
	}
	nexts, err := s.scanSummaries(nextRows)
	if err != nil {
		return nil, nil, err
	}
	if len(nexts) > 0 {
		next = &nexts[0]
	}

	return prev, next, nil
}

// Related returns published posts sharing at least one tag with the
// given post, most recent first, excluding the post itself. When no
// post shares a tag, the most recent other published posts are
// returned instead.
func (s *Store) Related(ctx context.Context, postID int64, limit int64) ([]model.PostSummary, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT `+summaryColumns+` FROM blog_posts p
		JOIN blog_post_tags pt ON pt.post_id = p.id
		WHERE pt.tag_id IN (SELECT tag_id FROM blog_post_tags WHERE post_id = ?)
		  AND p.id != ?
		  AND p.status = 'published'
		ORDER BY p.published_at DESC, p.id DESC
		LIMIT ?`, postID, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading related posts: %w", err)
	}
	posts, err := s.scanSummaries(rows)
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+summaryColumns+` FROM blog_posts p
			WHERE p.id != ? AND p.status = 'published'
			ORDER BY p.published_at DESC, p.id DESC
			LIMIT ?`, postID, limit)
		if err != nil {
			return nil, fmt.Errorf("loading fallback related posts: %w", err)
		}
		if posts, err = s.scanSummaries(rows); err != nil {
			return nil, err
		}
	}

	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}
