// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared across the suncms core.
package model

import (
	"database/sql"
	"time"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// ValidPostStatuses lists the accepted post statuses in lifecycle order.
var ValidPostStatuses = []string{
	PostStatusDraft,
	PostStatusPending,
	PostStatusPublished,
	PostStatusArchived,
}

// IsValidPostStatus reports whether status is one of the accepted statuses.
func IsValidPostStatus(status string) bool {
	for _, s := range ValidPostStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Post represents a blog post. BodyHTML is always sanitized before it is
// persisted; BodyText is the plain-text projection of BodyHTML used for
// search. PublishedAt is non-null only while the post status is published.
type Post struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Excerpt       string       `json:"excerpt"`
	BodyHTML      string       `json:"body_html"`
	BodyText      string       `json:"body_text"`
	CoverImage    string       `json:"cover_image"`
	CoverImageAlt string       `json:"cover_image_alt"`
	AuthorName    string       `json:"author_name"`
	Status        string       `json:"status"`
	PublishedAt   sql.NullTime `json:"published_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Tags          []string     `json:"tags"`
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsDraft returns true if the post is a draft.
func (p *Post) IsDraft() bool {
	return p.Status == PostStatusDraft
}

// PostSummary is the listing projection of a post (no body).
type PostSummary struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Excerpt       string       `json:"excerpt"`
	CoverImage    string       `json:"cover_image"`
	CoverImageAlt string       `json:"cover_image_alt"`
	AuthorName    string       `json:"author_name"`
	Status        string       `json:"status"`
	PublishedAt   sql.NullTime `json:"published_at,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Tags          []string     `json:"tags"`
}

// PostInput carries caller-supplied post fields into the repository.
// ID zero means insert; non-zero means update. BodyHTML is untrusted
// rich text and is sanitized by the repository.
type PostInput struct {
	ID            int64
	Title         string
	Slug          string
	Excerpt       string
	BodyHTML      string
	CoverImage    string
	CoverImageAlt string
	AuthorName    string
	Status        string
	Tags          []string
}

// PostFilters narrows ListPublished results.
type PostFilters struct {
	Search string // matched against title, excerpt and body text
	Tag    string // tag slug
}

// Actor identifies who performed an administrative action. It is passed
// explicitly rather than read from ambient request state.
type Actor struct {
	ID   int64
	Name string
}
