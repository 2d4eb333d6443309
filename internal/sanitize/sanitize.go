// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sanitize filters untrusted rich-text HTML down to a small
// whitelist of block and inline elements. Disallowed elements are
// unwrapped rather than deleted: their children stay in place, so
// surrounding inline text flow is preserved. Script and style contents
// are dropped entirely.
package sanitize

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// bodyPolicy is the whitelist for post bodies. Links keep href and
// title with http/https/mailto schemes only; figure, code and pre keep
// their class attribute for styling hooks. Everything else is stripped.
var bodyPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "ul", "ol", "li",
		"strong", "em", "b", "i",
		"a", "blockquote",
		"h2", "h3", "h4",
		"figure", "figcaption",
		"code", "pre", "br",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("class").OnElements("figure", "code", "pre")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	return p
}()

// textPolicy strips every tag, leaving text content only.
var textPolicy = bluemonday.StrictPolicy()

var whitespaceRegex = regexp.MustCompile(`\s+`)

// HTML sanitizes an untrusted HTML fragment down to the whitelist.
// Anchors that keep an href get rel=noopener force-set.
func HTML(fragment string) string {
	out := bodyPolicy.Sanitize(fragment)
	return forceNoopener(out)
}

// PlainText strips all tags from an HTML fragment, decodes entities,
// collapses whitespace runs and trims. Used for the search projection
// and excerpt derivation.
func PlainText(fragment string) string {
	text := textPolicy.Sanitize(fragment)
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// forceNoopener re-parses the sanitized fragment and sets rel=noopener
// on every anchor that still carries an href. bluemonday can require
// rel values on fully qualified links only, so relative and mailto
// links are handled here in one place instead.
func forceNoopener(fragment string) string {
	if !strings.Contains(fragment, "<a ") {
		return fragment
	}

	ctx := &xhtml.Node{Type: xhtml.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := xhtml.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		// Sanitized output should always re-parse; if it does not,
		// returning it unchanged is still safe output.
		return fragment
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		setNoopener(n)
		if err := xhtml.Render(&buf, n); err != nil {
			return fragment
		}
	}
	return buf.String()
}

func setNoopener(n *xhtml.Node) {
	if n.Type == xhtml.ElementNode && n.DataAtom == atom.A {
		hasHref := false
		for _, a := range n.Attr {
			if a.Key == "href" {
				hasHref = true
				break
			}
		}
		if hasHref {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if a.Key != "rel" {
					kept = append(kept, a)
				}
			}
			n.Attr = append(kept, xhtml.Attribute{Key: "rel", Val: "noopener"})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		setNoopener(c)
	}
}
