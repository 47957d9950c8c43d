package newsletter

// Notes:
// - Most tests use fakeFetcher so no network is touched; TestGenerate_OpenGraph
//   wires the real fetcher to an httptest server.
// - Tests are internal so helpers such as truncate and preheader can be
//   checked directly.

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type fakeFetcher struct {
	mu       sync.Mutex
	previews map[string]LinkPreview
	calls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) LinkPreview {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if p, ok := f.previews[url]; ok {
		return p
	}
	return LinkPreview{URL: url, Title: url}
}

type stubLoader struct {
	content string
	err     error
}

func (s stubLoader) LoadTemplate(string) (string, error) {
	return s.content, s.err
}

func testSite() Site {
	return Site{
		Name:          "example",
		URL:           "https://example.com",
		Domain:        "example.com",
		StaticHost:    "static.example.com",
		ArchiveURL:    "https://static.example.com/newsletter/",
		IconURL:       "https://example.com/icon.png",
		FeedbackEmail: "me@example.com",
		DateFormat:    "MMMM YYYY",
		Links: []FooterLink{
			{Label: "Blog", URL: "https://example.com", Track: true},
			{Label: "Social", URL: "https://social.example.net/me"},
		},
	}
}

func newTestGenerator(t *testing.T, f PreviewFetcher, opts ...Option) *Generator {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	base := []Option{
		WithSite(testSite()),
		WithFetcher(f),
		WithLogger(logger),
		WithNow(func() time.Time { return time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC) }),
		WithOutputDir(t.TempDir()),
	}
	g, err := NewGenerator(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func render(t *testing.T, g *Generator, md string) *Result {
	t.Helper()

	res, err := g.Render(context.Background(), md)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return res
}

// ---------------------------------------------------------------------------
// TestNewGenerator
// ---------------------------------------------------------------------------

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		g, err := NewGenerator()
		if err != nil {
			t.Fatalf("NewGenerator() error = %v", err)
		}
		if g.site.Name == "" {
			t.Error("default site has no name")
		}
		if g.outputDir != DefaultOutputDir {
			t.Errorf("outputDir = %q, want %q", g.outputDir, DefaultOutputDir)
		}
	})

	t.Run("invalid template dir", func(t *testing.T) {
		t.Parallel()

		_, err := NewGenerator(WithTemplateDir(filepath.Join(t.TempDir(), "missing")))
		if !errors.Is(err, ErrInvalidTemplateDir) {
			t.Errorf("NewGenerator() error = %v, want ErrInvalidTemplateDir", err)
		}
	})

	t.Run("template load failure", func(t *testing.T) {
		t.Parallel()

		_, err := NewGenerator(WithTemplateLoader(stubLoader{err: errors.New("boom")}))
		if !errors.Is(err, ErrTemplate) {
			t.Errorf("NewGenerator() error = %v, want ErrTemplate", err)
		}
	})

	t.Run("template parse failure", func(t *testing.T) {
		t.Parallel()

		_, err := NewGenerator(WithTemplateLoader(stubLoader{content: "{{.Title"}))
		if !errors.Is(err, ErrTemplate) {
			t.Errorf("NewGenerator() error = %v, want ErrTemplate", err)
		}
	})

	t.Run("custom template dir overrides embedded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "email.html"), []byte("<title>{{.Title}}</title>{{.Body}}"), 0o644); err != nil {
			t.Fatalf("writing template: %v", err)
		}

		g := newTestGenerator(t, &fakeFetcher{}, WithTemplateDir(dir))
		res := render(t, g, "---\ntitle: A & B\n---\n# Introduction\nHi")
		if !strings.HasPrefix(string(res.HTML), "<title>A &amp; B</title>") {
			t.Errorf("HTML = %q, want custom template output", res.HTML)
		}
	})
}

func TestWithFetchTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{0, -time.Second} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("WithFetchTimeout(%v) did not panic", d)
				}
			}()
			WithFetchTimeout(d)
		}()
	}
}

// ---------------------------------------------------------------------------
// TestRender
// ---------------------------------------------------------------------------

func TestRender_Metadata(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})

	tests := []struct {
		name        string
		md          string
		wantDate    string
		wantDisplay string
		wantTitle   string
	}{
		{
			name:        "frontmatter date and title",
			md:          "---\ndate: 2025-01\ntitle: Winter notes\n---\n# Introduction\nHello",
			wantDate:    "2025-01",
			wantDisplay: "January 2025",
			wantTitle:   "Winter notes",
		},
		{
			name:        "date defaults to current month",
			md:          "# Introduction\nHello",
			wantDate:    "2025-03",
			wantDisplay: "March 2025",
			wantTitle:   DefaultTitle,
		},
		{
			name:        "malformed date displayed raw",
			md:          "---\ndate: winter\n---\n# Introduction\nHello",
			wantDate:    "winter",
			wantDisplay: "winter",
			wantTitle:   DefaultTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := render(t, g, tt.md)
			if res.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", res.Date, tt.wantDate)
			}
			if res.DateDisplay != tt.wantDisplay {
				t.Errorf("DateDisplay = %q, want %q", res.DateDisplay, tt.wantDisplay)
			}
			if res.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", res.Title, tt.wantTitle)
			}
			if res.Ref != "newsletter-"+tt.wantDate {
				t.Errorf("Ref = %q, want %q", res.Ref, "newsletter-"+tt.wantDate)
			}
			if !strings.Contains(string(res.HTML), tt.wantDisplay+": "+tt.wantTitle) {
				t.Errorf("HTML missing header line %q", tt.wantDisplay+": "+tt.wantTitle)
			}
		})
	}
}

func TestRender_SiteDefaultTitle(t *testing.T) {
	t.Parallel()

	site := testSite()
	site.DefaultTitle = "Monthly digest"
	g := newTestGenerator(t, &fakeFetcher{}, WithSite(site))

	if res := render(t, g, "# Introduction\nHi"); res.Title != "Monthly digest" {
		t.Errorf("Title = %q, want %q", res.Title, "Monthly digest")
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})

	tests := []struct {
		name    string
		md      string
		wantErr error
	}{
		{name: "empty", md: "", wantErr: ErrEmptyMarkdown},
		{name: "whitespace", md: " \n\t\n", wantErr: ErrEmptyMarkdown},
		{name: "date with separator", md: "---\ndate: ../../etc\n---\n# Introduction\nx", wantErr: ErrInvalidIssueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := g.Render(context.Background(), tt.md)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Render() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRender_IntroductionOnly(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	res := render(t, g, "---\ndate: 2025-01\n---\n# Introduction\nHello **world**, see [the post](https://example.com/post).")
	out := string(res.HTML)

	for _, heading := range []string{headingWriting, headingWorking, headingReading, "<h2"} {
		if strings.Contains(out, heading) {
			t.Errorf("HTML contains %q for absent section", heading)
		}
	}
	if !strings.Contains(out, "<strong>world</strong>") {
		t.Error("bold not rendered")
	}
	if !strings.Contains(out, `href="https://example.com/post?campaign=newsletter-2025-01&amp;ref=newsletter-2025-01"`) {
		t.Error("own-domain link not tracked")
	}
	if res.Preheader != "Hello world, see the post." {
		t.Errorf("Preheader = %q, want %q", res.Preheader, "Hello world, see the post.")
	}
	if res.Cards != 0 || res.ReadingItems != 0 {
		t.Errorf("Cards, ReadingItems = %d, %d; want 0, 0", res.Cards, res.ReadingItems)
	}
}

func TestRender_SectionOrder(t *testing.T) {
	t.Parallel()

	md := `---
date: 2025-01
greeting: Hi all,
---
# Closing
Bye for now.

# Reading
- https://arxiv.org/abs/1

# Working
- https://github.com/someone/tool

# Writing
- https://example.com/post

# Introduction
Welcome.

# Appendix
Ignored.
`
	g := newTestGenerator(t, &fakeFetcher{})
	_, out, found := strings.Cut(string(render(t, g, md).HTML), "email-content")
	if !found {
		t.Fatal("content marker not found")
	}

	order := []string{"Hi all,", "Welcome.", headingWriting, headingWorking, headingReading, "Bye for now."}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		if idx < 0 {
			t.Fatalf("HTML missing %q", marker)
		}
		if idx < last {
			t.Errorf("%q rendered out of order", marker)
		}
		last = idx
	}
	if strings.Contains(out, "Ignored.") {
		t.Error("unknown section rendered")
	}
}

func TestRender_SectionHeadings(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	out := string(render(t, g, "# Writing\n- https://example.com/post\n\n# Reading\n- https://arxiv.org/abs/1").HTML)

	for _, heading := range []string{headingWriting, headingReading} {
		if !strings.Contains(out, heading) {
			t.Errorf("HTML missing heading %q", heading)
		}
	}
	if strings.Contains(out, headingWorking) {
		t.Errorf("HTML contains %q for absent section", headingWorking)
	}
	if got := strings.Count(out, "<h2"); got != 2 {
		t.Errorf("<h2 count = %d, want 2", got)
	}
}

func TestRender_EmptyLinkSectionOmitted(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	g := newTestGenerator(t, f)
	res := render(t, g, "# Writing\nnothing to see\n\n# Reading\njust prose")

	out := string(res.HTML)
	if strings.Contains(out, headingWriting) || strings.Contains(out, headingReading) || strings.Contains(out, "<h2") {
		t.Error("section with no parsable items rendered a header")
	}
	if len(f.calls) != 0 {
		t.Errorf("fetcher called %d times, want 0", len(f.calls))
	}
}

func TestRender_Cards(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("d", 200)
	f := &fakeFetcher{previews: map[string]LinkPreview{
		"https://example.com/a": {
			URL:         "https://example.com/a",
			Title:       "Post <A>",
			Description: long,
			Image:       "https://static.example.com/img/a.jpg",
			SiteName:    "example",
		},
		"https://other.net/b": {
			URL:         "https://other.net/b",
			Title:       "Fetched B",
			Description: "Fetched description",
		},
	}}
	g := newTestGenerator(t, f)

	md := "---\ndate: 2025-01\n---\n# Writing\n- https://example.com/a\n- [Custom B](https://other.net/b) - My take\n"
	res := render(t, g, md)
	out := string(res.HTML)

	if res.Cards != 2 {
		t.Errorf("Cards = %d, want 2", res.Cards)
	}
	if got := strings.Count(out, "margin: 0 0 12px 0;"); got != 1 {
		t.Errorf("first-card margin appears %d times, want 1", got)
	}
	if got := strings.Count(out, "margin: 12px 0;"); got != 1 {
		t.Errorf("later-card margin appears %d times, want 1", got)
	}
	if !strings.Contains(out, "Post &lt;A&gt;") {
		t.Error("fetched title not escaped")
	}
	if !strings.Contains(out, strings.Repeat("d", 147)+"...") || strings.Contains(out, strings.Repeat("d", 148)) {
		t.Error("description not truncated to 147 characters plus ellipsis")
	}
	if !strings.Contains(out, "https://static.example.com/cdn-cgi/image/width=240,quality=80,format=webp/img/a.jpg") {
		t.Error("static image not routed through CDN")
	}
	if !strings.Contains(out, `alt="Preview image for: Post &lt;A&gt;"`) {
		t.Error("image alt text missing")
	}
	if !strings.Contains(out, "Custom B") || strings.Contains(out, "Fetched B") {
		t.Error("custom title did not override fetched title")
	}
	if !strings.Contains(out, "My take") || strings.Contains(out, "Fetched description") {
		t.Error("custom description did not override fetched description")
	}
	if !strings.Contains(out, `href="https://other.net/b?campaign=newsletter-2025-01&amp;ref=newsletter-2025-01"`) {
		t.Error("card link to foreign domain not tracked")
	}
}

func TestRender_CardWithoutImage(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	out := string(render(t, g, "# Working\nhttps://other.net/x").HTML)

	if strings.Contains(out, `class="card-image"`) {
		t.Error("card without image rendered an image cell")
	}
}

func TestRender_ReadingList(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	md := "---\ndate: 2025-01\n---\n# Reading\n- [Paper](https://arxiv.org/abs/1) - worth it\n- https://www.nature.com/articles/x\n"
	res := render(t, g, md)
	out := string(res.HTML)

	if res.ReadingItems != 2 {
		t.Errorf("ReadingItems = %d, want 2", res.ReadingItems)
	}
	for _, want := range []string{
		`>Paper</a>: <span style="color: #666666;">worth it</span>`,
		" via arXiv</span>",
		" via Nature</span>",
		">https://www.nature.com/articles/x</a>",
		"&#9632;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRender_FooterLinks(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	out := string(render(t, g, "---\ndate: 2025-01\n---\n# Introduction\nx").HTML)

	for _, want := range []string{
		`href="https://example.com?campaign=newsletter-2025-01&amp;ref=newsletter-2025-01"`,
		`href="https://social.example.net/me"`,
		`href="https://static.example.com/newsletter/newsletter-2025-01.html"`,
		`href="mailto:me@example.com"`,
		"Reply to unsubscribe",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRender_OutlookConditionals(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	out := string(render(t, g, "# Introduction\nx").HTML)

	for _, want := range []string{
		"<!--[if mso]><noscript><xml><o:OfficeDocumentSettings>",
		`<!--[if mso]><table role="presentation" cellpadding="0" cellspacing="0" border="0" width="600" align="center"><tr><td><![endif]-->`,
		"<!--[if mso]></td></tr></table><![endif]-->",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRender_TemplateEscaping(t *testing.T) {
	t.Parallel()

	site := testSite()
	site.Name = "Tom & <Jerry>"
	site.Links = []FooterLink{{Label: "<b>Blog</b>", URL: "javascript:alert(1)"}}
	g := newTestGenerator(t, &fakeFetcher{}, WithSite(site))
	out := string(render(t, g, "---\ntitle: Fish \"n\" chips\n---\n# Introduction\nx").HTML)

	for _, want := range []string{
		"Tom &amp; &lt;Jerry&gt;",
		"&lt;b&gt;Blog&lt;/b&gt;",
		`href="#ZgotmplZ"`,
		"<title>Fish &#34;n&#34; chips</title>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(out, "javascript:") {
		t.Error("unsafe footer URL rendered")
	}
}

func TestRender_Cancelled(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &fakeFetcher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Render(ctx, "# Writing\n- https://example.com/a")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestGenerate
// ---------------------------------------------------------------------------

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("default output path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		g := newTestGenerator(t, &fakeFetcher{}, WithOutputDir(filepath.Join(dir, "out")))

		res, err := g.Generate(context.Background(), Input{Markdown: "---\ndate: 2025-01\n---\n# Introduction\nHi"})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		want := filepath.Join(dir, "out", "newsletter-2025-01.html")
		if res.OutputPath != want {
			t.Errorf("OutputPath = %q, want %q", res.OutputPath, want)
		}
		data, err := os.ReadFile(want)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if string(data) != string(res.HTML) {
			t.Error("written file differs from Result.HTML")
		}
	})

	t.Run("explicit output path overwrites", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "custom.html")
		if err := os.WriteFile(out, []byte(strings.Repeat("stale ", 10000)), 0o644); err != nil {
			t.Fatalf("seeding output: %v", err)
		}

		g := newTestGenerator(t, &fakeFetcher{})
		res, err := g.Generate(context.Background(), Input{Markdown: "# Introduction\nFresh", OutputPath: out})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		data, _ := os.ReadFile(out)
		if strings.Contains(string(data), "stale") || len(data) != len(res.HTML) {
			t.Error("output was not fully replaced")
		}
	})

	t.Run("reads from path", func(t *testing.T) {
		t.Parallel()

		in := filepath.Join(t.TempDir(), "newsletter-2025-02.md")
		if err := os.WriteFile(in, []byte("---\ndate: 2025-02\n---\n# Introduction\nFrom file"), 0o644); err != nil {
			t.Fatalf("writing input: %v", err)
		}

		g := newTestGenerator(t, &fakeFetcher{})
		res, err := g.Generate(context.Background(), Input{Path: in})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !strings.Contains(string(res.HTML), "From file") {
			t.Error("content from input path not rendered")
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		g := newTestGenerator(t, &fakeFetcher{})
		_, err := g.Generate(context.Background(), Input{Path: filepath.Join(t.TempDir(), "missing.md")})
		if !errors.Is(err, ErrReadMarkdown) {
			t.Errorf("Generate() error = %v, want ErrReadMarkdown", err)
		}
	})

	t.Run("unwritable output", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
			t.Fatalf("writing blocker: %v", err)
		}

		g := newTestGenerator(t, &fakeFetcher{})
		_, err := g.Generate(context.Background(), Input{Markdown: "# Introduction\nx", OutputPath: filepath.Join(blocker, "out.html")})
		if !errors.Is(err, ErrWriteHTML) {
			t.Errorf("Generate() error = %v, want ErrWriteHTML", err)
		}
	})
}

func TestGenerator_OutputPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g := newTestGenerator(t, &fakeFetcher{}, WithOutputDir(dir))

	tests := []struct {
		name    string
		input   Input
		want    string
		wantErr error
	}{
		{name: "frontmatter date", input: Input{Markdown: "---\ndate: 2025-01\n---\n# Introduction\nx"}, want: filepath.Join(dir, "newsletter-2025-01.html")},
		{name: "current month", input: Input{Markdown: "# Introduction\nx"}, want: filepath.Join(dir, "newsletter-2025-03.html")},
		{name: "explicit output", input: Input{Markdown: "x", OutputPath: "custom.html"}, want: "custom.html"},
		{name: "missing file", input: Input{Path: filepath.Join(dir, "missing.md")}, wantErr: ErrReadMarkdown},
		{name: "unsafe date", input: Input{Markdown: "---\ndate: ../x\n---\n"}, wantErr: ErrInvalidIssueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := g.OutputPath(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("OutputPath() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_OpenGraph(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
<meta property="og:title" content="Served Title">
<meta property="og:description" content="Served description">
</head></html>`))
	}))
	defer srv.Close()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cacheDir := filepath.Join(t.TempDir(), "og")

	newGen := func() *Generator {
		g, err := NewGenerator(
			WithSite(testSite()),
			WithLogger(logger),
			WithCacheDir(cacheDir),
			WithHTTPClient(srv.Client()),
			WithFetchTimeout(5*time.Second),
			WithOutputDir(t.TempDir()),
		)
		if err != nil {
			t.Fatalf("NewGenerator() error = %v", err)
		}
		return g
	}

	md := "# Writing\n- " + srv.URL + "/post\n"
	out := string(render(t, newGen(), md).HTML)
	if !strings.Contains(out, "Served Title") || !strings.Contains(out, "Served description") {
		t.Error("fetched metadata not rendered")
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache dir entries = %d, err %v; want 1", len(entries), err)
	}

	// A new generator reads the persisted entry instead of the network.
	render(t, newGen(), md)
	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
	if len(hook.AllEntries()) == 0 {
		t.Error("no log entries recorded")
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestSourceLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://arxiv.org/abs/1", "arXiv"},
		{"https://export.arxiv.org/abs/1", "Export"},
		{"https://arxiv-sanity.com/x", "arXiv"},
		{"https://papers.ssrn.com/sol3/papers.cfm", "SSRN"},
		{"https://ssrn.com/abstract=1", "SSRN"},
		{"https://github.com/someone", "GitHub"},
		{"https://medium.com/@x/post", "Medium"},
		{"https://substack.com/p/x", "Substack"},
		{"https://someone.substack.com/p/x", "Someone"},
		{"https://www.nature.com/articles/x", "Nature"},
		{"https://WWW.Economist.com/x", "Economist"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			if got := SourceLabel(tt.url); got != tt.want {
				t.Errorf("SourceLabel(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 150, "short"},
		{strings.Repeat("a", 150), 150, strings.Repeat("a", 150)},
		{strings.Repeat("a", 151), 150, strings.Repeat("a", 147) + "..."},
		{strings.Repeat("é", 10), 5, "éé..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPreheader(t *testing.T) {
	t.Parallel()

	if got := preheader("Read [this](https://example.com) *now*."); got != "Read this now." {
		t.Errorf("preheader() = %q, want %q", got, "Read this now.")
	}

	long := strings.Repeat("word ", 40)
	got := preheader(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("preheader() = %q, want ellipsis", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n > preheaderLength {
		t.Errorf("preheader() kept %d runes, want at most %d", n, preheaderLength)
	}
}

func TestViewURL(t *testing.T) {
	t.Parallel()

	for _, archive := range []string{"https://s.example.com/nl", "https://s.example.com/nl/"} {
		if got := viewURL(archive, "2025-01"); got != "https://s.example.com/nl/newsletter-2025-01.html" {
			t.Errorf("viewURL(%q) = %q", archive, got)
		}
	}
}
