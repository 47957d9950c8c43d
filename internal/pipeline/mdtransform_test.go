package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestNormalizeLineEndings
// ---------------------------------------------------------------------------

func TestNormalizeLineEndings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "CRLF", input: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "CR", input: "a\rb", want: "a\nb"},
		{name: "LF unchanged", input: "a\nb", want: "a\nb"},
		{name: "mixed", input: "a\r\nb\rc\n", want: "a\nb\nc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeLineEndings(tt.input); got != tt.want {
				t.Errorf("NormalizeLineEndings(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParseFrontmatter
// ---------------------------------------------------------------------------

func TestParseFrontmatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantFM   map[string]string
		wantBody string
	}{
		{
			name:     "recognized keys",
			input:    "---\ndate: 2025-01\ntitle: Hello\ngreeting: Hi all,\n---\n# Introduction\nText",
			wantFM:   map[string]string{"date": "2025-01", "title": "Hello", "greeting": "Hi all,"},
			wantBody: "# Introduction\nText",
		},
		{
			name:     "value keeps later colons",
			input:    "---\ntitle: Part 2: The Return\n---\nbody",
			wantFM:   map[string]string{"title": "Part 2: The Return"},
			wantBody: "body",
		},
		{
			name:     "values and keys trimmed",
			input:    "---\n  title  :   spaced out   \n---\nbody",
			wantFM:   map[string]string{"title": "spaced out"},
			wantBody: "body",
		},
		{
			name:     "lines without colon ignored",
			input:    "---\njust text\nauthor: me\n---\nbody",
			wantFM:   map[string]string{"author": "me"},
			wantBody: "body",
		},
		{
			name:     "unknown keys retained",
			input:    "---\nslug: jan\n---\n",
			wantFM:   map[string]string{"slug": "jan"},
			wantBody: "",
		},
		{
			name:     "closing delimiter at end of input",
			input:    "---\ndate: 2025-02\n---",
			wantFM:   map[string]string{"date": "2025-02"},
			wantBody: "",
		},
		{
			name:     "no block",
			input:    "# Introduction\nText",
			wantFM:   map[string]string{},
			wantBody: "# Introduction\nText",
		},
		{
			name:     "unterminated block is body",
			input:    "---\ndate: 2025-01\n# Introduction",
			wantFM:   map[string]string{},
			wantBody: "---\ndate: 2025-01\n# Introduction",
		},
		{
			name:     "block not at start is body",
			input:    "\n---\ndate: 2025-01\n---\n",
			wantFM:   map[string]string{},
			wantBody: "\n---\ndate: 2025-01\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fm, body := ParseFrontmatter(tt.input)
			if diff := cmp.Diff(tt.wantFM, fm); diff != "" {
				t.Errorf("frontmatter mismatch (-want +got):\n%s", diff)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestParseFrontmatter_RoundTrip(t *testing.T) {
	t.Parallel()

	pairs := map[string]string{
		"date":     "2026-03",
		"title":    "Spring notes",
		"greeting": "Hello friends,",
		"extra":    "a: b: c",
	}

	var b strings.Builder
	b.WriteString("---\n")
	for k, v := range pairs {
		b.WriteString(k + ": " + v + "\n")
	}
	b.WriteString("---\nbody text")

	fm, body := ParseFrontmatter(b.String())
	for k, v := range pairs {
		if fm[k] != v {
			t.Errorf("fm[%q] = %q, want %q", k, fm[k], v)
		}
	}
	if body != "body text" {
		t.Errorf("body = %q, want %q", body, "body text")
	}
}

// ---------------------------------------------------------------------------
// TestParseSections
// ---------------------------------------------------------------------------

func TestParseSections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Sections
	}{
		{
			name:  "names lowercased, bodies trimmed",
			input: "# Introduction\n\nHello there.\n\n# WRITING\n- https://a.com\n",
			want: Sections{
				{Name: "introduction", Body: "Hello there."},
				{Name: "writing", Body: "- https://a.com"},
			},
		},
		{
			name:  "subheaders stay in body",
			input: "# Closing\n## Thanks\nBye",
			want:  Sections{{Name: "closing", Body: "## Thanks\nBye"}},
		},
		{
			name:  "preamble discarded",
			input: "stray text\n# Reading\n- https://r.com",
			want:  Sections{{Name: "reading", Body: "- https://r.com"}},
		},
		{
			name:  "empty section kept",
			input: "# Introduction\n# Closing\nBye",
			want: Sections{
				{Name: "introduction", Body: ""},
				{Name: "closing", Body: "Bye"},
			},
		},
		{
			name:  "duplicate header keeps first position, last body",
			input: "# Introduction\nfirst\n# Closing\nbye\n# Introduction\nsecond",
			want: Sections{
				{Name: "introduction", Body: "second"},
				{Name: "closing", Body: "bye"},
			},
		},
		{
			name:  "no headers",
			input: "just text\nmore",
			want:  nil,
		},
		{
			name:  "hash without space is not a header",
			input: "# Intro\n#hashtag line",
			want:  Sections{{Name: "intro", Body: "#hashtag line"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseSections(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSections() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSections_MembershipStable(t *testing.T) {
	t.Parallel()

	doc := "# A\nline a1\nline a2\n\n# B\nline b1\n"
	first := ParseSections(doc)

	var b strings.Builder
	for _, sec := range first {
		b.WriteString("# " + sec.Name + "\n" + sec.Body + "\n")
	}
	second := ParseSections(b.String())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-split mismatch (-first +second):\n%s", diff)
	}
}

func TestSections_Get(t *testing.T) {
	t.Parallel()

	s := Sections{{Name: "introduction", Body: "hi"}}

	if body, ok := s.Get("introduction"); !ok || body != "hi" {
		t.Errorf("Get(introduction) = %q, %v; want %q, true", body, ok, "hi")
	}
	if _, ok := s.Get("Introduction"); ok {
		t.Error("Get is exact-match; uppercase name should miss")
	}
	if diff := cmp.Diff([]string{"introduction"}, s.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}
