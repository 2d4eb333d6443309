// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cover generates placeholder cover images for posts that were
// saved or published without one. The placeholder is a small inline SVG
// encoded as a base64 data URI, deterministic for a given title and
// prompt text.
package cover

import (
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	svgWidth  = 1200
	svgHeight = 630

	// maxLineLen caps rendered text so long titles do not overflow the
	// viewport; overflowing text is ellipsised.
	maxLineLen = 48
)

// palette cycled by a cheap hash of the title, so different posts get
// visually distinct placeholders while staying deterministic.
var palette = []struct{ bg, accent string }{
	{"#1f3a5f", "#f9a826"},
	{"#274c34", "#9fd8a3"},
	{"#4a2c4d", "#e8b4e0"},
	{"#54442b", "#ffd97d"},
	{"#2b4450", "#8fd3e8"},
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Placeholder renders a deterministic SVG cover for the given title and
// prompt text and returns it as a data URI together with generated alt
// text.
func Placeholder(title, prompt string) (dataURI, altText string) {
	title = whitespaceRegex.ReplaceAllString(strings.TrimSpace(title), " ")
	prompt = whitespaceRegex.ReplaceAllString(strings.TrimSpace(prompt), " ")

	colors := palette[hashString(title)%len(palette)]

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="%d" height="%d" fill="%s"/>`+
		`<rect x="0" y="%d" width="%d" height="8" fill="%s"/>`+
		`<text x="60" y="300" font-family="Georgia, serif" font-size="56" fill="#ffffff">%s</text>`+
		`<text x="60" y="380" font-family="Georgia, serif" font-size="28" fill="%s">%s</text>`+
		`</svg>`,
		svgWidth, svgHeight, svgWidth, svgHeight,
		svgWidth, svgHeight, colors.bg,
		svgHeight-8, svgWidth, colors.accent,
		html.EscapeString(truncate(title, maxLineLen)),
		colors.accent,
		html.EscapeString(truncate(prompt, maxLineLen+24)),
	)

	dataURI = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))

	altText = title
	if altText == "" {
		altText = "Cover image"
	} else {
		altText = "Illustration: " + altText
	}
	return dataURI, altText
}

// truncate cuts s to at most max bytes on a rune boundary, preferring
// the last space past the halfway point.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	end := max
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

// hashString is FNV-1a over s.
func hashString(s string) int {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return int(h)
}
