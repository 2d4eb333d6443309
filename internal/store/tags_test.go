// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sunward/suncms/internal/model"
)

func TestSyncTagsDedupeAndReuse(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	post, err := s.Save(ctx, model.PostInput{
		Title:    "Tagged",
		BodyHTML: "<p>x</p>",
		Tags:     []string{"  Solar Power ", "solar power", "SOLAR-POWER", "Wind"},
	}, testActor)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Duplicates collapsing to the same slug keep the first display name.
	if len(post.Tags) != 2 {
		t.Fatalf("tags = %v, want 2 after dedupe", post.Tags)
	}

	tag, err := s.GetTagBySlug(ctx, "solar-power")
	if err != nil {
		t.Fatalf("GetTagBySlug: %v", err)
	}
	if tag.Name != "Solar Power" {
		t.Errorf("name = %q, want first-seen display name", tag.Name)
	}

	// A second post reuses the existing tag row.
	if _, err := s.Save(ctx, model.PostInput{
		Title: "Also Tagged", BodyHTML: "<p>x</p>", Tags: []string{"Solar Power"},
	}, testActor); err != nil {
		t.Fatalf("second save: %v", err)
	}
	otherTag, err := s.GetTagBySlug(ctx, "solar-power")
	if err != nil {
		t.Fatalf("GetTagBySlug: %v", err)
	}
	if otherTag.ID != tag.ID {
		t.Errorf("tag row duplicated: %d != %d", otherTag.ID, tag.ID)
	}
}

func TestSyncTagsReplacesLinks(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	post, err := s.Save(ctx, model.PostInput{
		Title: "Retag Me", BodyHTML: "<p>x</p>", Tags: []string{"Old", "Keep"},
	}, testActor)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	names, err := s.SyncTags(ctx, post.ID, []string{"Keep", "New"})
	if err != nil {
		t.Fatalf("SyncTags: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}

	got, err := s.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	want := map[string]bool{"Keep": true, "New": true}
	if len(got.Tags) != 2 || !want[got.Tags[0]] || !want[got.Tags[1]] {
		t.Errorf("tags after resync = %v, want Keep and New", got.Tags)
	}
}

func TestGetTagBySlugNotFound(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	_, err := s.GetTagBySlug(context.Background(), "nope")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListTagsCountsPublishedOnly(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedPublished(t, s, "Live One", "<p>x</p>", []string{"Shared"})
	if _, err := s.Save(ctx, model.PostInput{
		Title: "Draft One", BodyHTML: "<p>x</p>", Tags: []string{"Shared", "DraftOnly"},
	}, testActor); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}

	counts := make(map[string]int64, len(tags))
	for _, tag := range tags {
		counts[tag.Slug] = tag.PostCount
	}
	if counts["shared"] != 1 {
		t.Errorf("shared count = %d, want 1 (draft excluded)", counts["shared"])
	}
	if counts["draftonly"] != 0 {
		t.Errorf("draftonly count = %d, want 0", counts["draftonly"])
	}
}
