package sanitize

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:        "script removed with content",
			input:       `<script>alert(1)</script><p>ok</p>`,
			contains:    []string{"<p>ok</p>"},
			notContains: []string{"script", "alert"},
		},
		{
			name:        "div unwrapped children promoted",
			input:       `<div><strong>bold</strong> text</div>`,
			contains:    []string{"<strong>bold</strong> text"},
			notContains: []string{"<div>", "</div>"},
		},
		{
			name:        "javascript href dropped text kept",
			input:       `<a href="javascript:alert(1)">x</a>`,
			contains:    []string{">x</a>"},
			notContains: []string{"javascript", "href"},
		},
		{
			name:     "http link keeps href and gains noopener",
			input:    `<a href="https://example.com" title="t">site</a>`,
			contains: []string{`href="https://example.com"`, `title="t"`, `rel="noopener"`},
		},
		{
			name:     "mailto link allowed",
			input:    `<a href="mailto:info@example.com">mail</a>`,
			contains: []string{`href="mailto:info@example.com"`, `rel="noopener"`},
		},
		{
			name:        "event handler attributes stripped",
			input:       `<p onclick="alert(1)" style="color:red">hi</p>`,
			contains:    []string{"<p>hi</p>"},
			notContains: []string{"onclick", "style"},
		},
		{
			name:     "headings figures and code allowed",
			input:    `<h2>H</h2><figure class="wide"><figcaption>c</figcaption></figure><pre class="lang-go"><code>x := 1</code></pre>`,
			contains: []string{"<h2>H</h2>", `<figure class="wide">`, "<figcaption>c</figcaption>", `<pre class="lang-go">`, "<code>"},
		},
		{
			name:        "heading level outside whitelist unwrapped",
			input:       `<h1>Top</h1><h5>Deep</h5>`,
			contains:    []string{"Top", "Deep"},
			notContains: []string{"<h1>", "<h5>"},
		},
		{
			name:        "class stripped from non-whitelisted-attr tags",
			input:       `<p class="x">y</p>`,
			contains:    []string{"<p>y</p>"},
			notContains: []string{"class"},
		},
		{
			name:        "style element content dropped",
			input:       `<style>p{display:none}</style><p>shown</p>`,
			contains:    []string{"<p>shown</p>"},
			notContains: []string{"display:none"},
		},
		{
			name:     "lists preserved",
			input:    `<ul><li>a</li><li>b</li></ul>`,
			contains: []string{"<ul>", "<li>a</li>", "<li>b</li>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTML(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("HTML(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.notContains {
				if strings.Contains(got, bad) {
					t.Errorf("HTML(%q) = %q, must not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestHTMLPreservesChildOrder(t *testing.T) {
	got := HTML(`<div>one <em>two</em> three</div>`)
	if got != "one <em>two</em> three" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips tags",
			input:    "<p>Hello <strong>World</strong></p>",
			expected: "Hello World",
		},
		{
			name:     "decodes entities",
			input:    "<p>Fish &amp; Chips</p>",
			expected: "Fish & Chips",
		},
		{
			name:     "collapses whitespace",
			input:    "<p>a</p>\n\n<p>  b   c</p>",
			expected: "a b c",
		},
		{
			name:     "empty after stripping",
			input:    "<p>   </p>",
			expected: "",
		},
		{
			name:     "plain input unchanged",
			input:    "just text",
			expected: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.input); got != tt.expected {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
