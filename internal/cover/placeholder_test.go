package cover

import (
	"encoding/base64"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlaceholderDeterministic(t *testing.T) {
	uri1, alt1 := Placeholder("Solar Basics", "Why panels pay off")
	uri2, alt2 := Placeholder("Solar Basics", "Why panels pay off")
	if uri1 != uri2 || alt1 != alt2 {
		t.Error("Placeholder is not deterministic for identical input")
	}
}

func TestPlaceholderDataURI(t *testing.T) {
	uri, alt := Placeholder("Solar Basics", "Why panels pay off")

	const prefix = "data:image/svg+xml;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("unexpected data URI prefix: %q", uri[:40])
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}

	svg := string(raw)
	for _, want := range []string{"<svg", "Solar Basics", "Why panels pay off"} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q:\n%s", want, svg)
		}
	}

	if alt != "Illustration: Solar Basics" {
		t.Errorf("alt = %q", alt)
	}
}

func TestPlaceholderEscapesMarkup(t *testing.T) {
	uri, _ := Placeholder(`<script>"x"&`, "")
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/svg+xml;base64,"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(string(raw), "<script>") {
		t.Error("title markup not escaped inside SVG")
	}
}

func TestPlaceholderEmptyTitle(t *testing.T) {
	_, alt := Placeholder("", "prompt")
	if alt != "Cover image" {
		t.Errorf("alt for empty title = %q", alt)
	}
}

func TestPlaceholderTruncatesLongTitle(t *testing.T) {
	long := strings.Repeat("verylongword ", 20)
	uri, _ := Placeholder(long, "")
	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/svg+xml;base64,"))
	if !strings.Contains(string(raw), "…") {
		t.Error("long title not ellipsised")
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
	}{
		{"cjk no spaces", strings.Repeat("日本語", 30), maxLineLen},
		{"cjk with spaces", strings.Repeat("日本 語 ", 20), maxLineLen},
		{"cut inside rune", "ab日本語", 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.max)
			if !utf8.ValidString(got) {
				t.Fatalf("truncate(%q, %d) = %q is not valid UTF-8", tc.in, tc.max, got)
			}
			if !strings.HasSuffix(got, "…") {
				t.Errorf("truncated text %q missing ellipsis", got)
			}
		})
	}
}

func TestPlaceholderMultibyteTitle(t *testing.T) {
	title := strings.Repeat("日本語", 30)
	uri, _ := Placeholder(title, title)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/svg+xml;base64,"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !utf8.Valid(raw) {
		t.Error("SVG payload contains invalid UTF-8")
	}
}
