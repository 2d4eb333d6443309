// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode normalization support.
package util

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches runs of characters that are not lowercase
	// alphanumerics, each run collapsing to a single hyphen
	slugRegex = regexp.MustCompile(`[^a-z0-9]+`)
	// whitespaceRegex matches runs of whitespace
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// randomSlugLen is the length of the hex fallback slug generated for
// inputs that yield no usable characters.
const randomSlugLen = 12

// randomSlug returns a random lowercase hex string. It guarantees a
// non-empty unique-ish slug even for blank or all-punctuation titles.
func randomSlug() string {
	buf := make([]byte, randomSlugLen/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; keep the
		// contract of a non-empty slug anyway.
		return strings.Repeat("0", randomSlugLen)
	}
	return hex.EncodeToString(buf)
}

// Slugify converts a string to a URL-friendly slug. Accents are
// decomposed and stripped, remaining non-Latin characters are
// transliterated to ASCII, and runs of anything that is not a lowercase
// alphanumeric collapse to single hyphens. Degenerate input (empty or
// all punctuation) falls back to a random 12-character hex slug, so the
// result is always non-empty.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return randomSlug()
	}

	// Normalize unicode characters (decompose accents), then
	// transliterate whatever non-ASCII remains.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	result = unidecode.Unidecode(result)

	result = strings.ToLower(result)
	result = slugRegex.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if result == "" {
		return randomSlug()
	}
	return result
}

// NormalizeTag trims a tag name and collapses internal whitespace runs
// to single spaces. Display casing is preserved; only the derived slug
// is case-folded.
func NormalizeTag(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}
