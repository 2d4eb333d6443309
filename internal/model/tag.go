// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Tag is a post label. Name keeps the display casing as typed; Slug is
// the case-folded URL identifier derived from it. Tags are created
// lazily on first reference and never deleted.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TagWithCount is a tag plus the number of published posts carrying it.
type TagWithCount struct {
	Tag
	PostCount int64 `json:"post_count"`
}
