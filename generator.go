package newsletter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-newsletter/internal/assets"
	"github.com/alnah/go-newsletter/internal/dateutil"
	"github.com/alnah/go-newsletter/internal/fileutil"
	"github.com/alnah/go-newsletter/internal/opengraph"
	"github.com/alnah/go-newsletter/internal/pipeline"
)

// Defaults applied when neither frontmatter nor options provide a value.
const (
	DefaultTitle     = "What you missed"
	DefaultOutputDir = "output"
	FilePrefix       = "newsletter-"
	FileExt          = ".html"
)

// Generator renders Markdown newsletters into email HTML.
// Create with NewGenerator. Render and Generate are safe for concurrent use
// when the configured PreviewFetcher is.
type Generator struct {
	cfg            generatorConfig
	site           Site
	cdn            CDN
	fetcher        PreviewFetcher
	templateLoader TemplateLoader
	tmpl           *template.Template
	outputDir      string
	logger         logrus.FieldLogger
	now            func() time.Time
}

// Input describes one generation.
type Input struct {
	Path       string // Markdown file, read when Markdown is empty
	Markdown   string // Markdown content, takes precedence over Path
	OutputPath string // Overrides <outputDir>/newsletter-<date>.html
}

// Result holds the rendered document and the values derived while rendering.
type Result struct {
	HTML         []byte
	Date         string            // Issue date, YYYY-MM when well-formed
	DateDisplay  string            // e.g. "January 2025"
	Title        string
	Ref          string            // Tracking tag, newsletter-<date>
	Preheader    string            // Hidden preview text
	Frontmatter  map[string]string // All frontmatter keys, recognized or not
	Cards        int               // Preview cards rendered
	ReadingItems int               // Reading list rows rendered
	OutputPath   string            // Set by Generate
}

// openGraphFetcher adapts the internal fetcher to PreviewFetcher.
type openGraphFetcher struct {
	f *opengraph.Fetcher
}

func (a openGraphFetcher) Fetch(ctx context.Context, url string) LinkPreview {
	return LinkPreview(a.f.Fetch(ctx, url))
}

// NewGenerator creates a Generator. The email template is loaded and parsed
// here so template errors surface before any network access.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		site:      DefaultSite(),
		outputDir: DefaultOutputDir,
		logger:    logrus.StandardLogger(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.templateLoader == nil {
		resolver, err := assets.NewResolver(g.cfg.templateDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplateDir, err)
		}
		g.templateLoader = resolver
	}

	src, err := g.templateLoader.LoadTemplate(assets.EmailTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", ErrTemplate, assets.EmailTemplateName, err)
	}
	g.tmpl, err = template.New(assets.EmailTemplateName).Funcs(templateFuncs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrTemplate, assets.EmailTemplateName, err)
	}

	if g.fetcher == nil {
		g.fetcher = openGraphFetcher{f: g.newOpenGraphFetcher()}
	}

	return g, nil
}

func (g *Generator) newOpenGraphFetcher() *opengraph.Fetcher {
	opts := []opengraph.Option{
		opengraph.WithLogger(g.logger),
		opengraph.WithRefresh(g.cfg.refresh),
		opengraph.WithUserAgent(g.cfg.userAgent),
		opengraph.WithHTTPClient(g.cfg.httpClient),
	}
	if g.cfg.cacheDir != "" {
		opts = append(opts, opengraph.WithStore(opengraph.NewFileStore(g.cfg.cacheDir)))
	}
	if g.cfg.fetchTimeout > 0 {
		opts = append(opts, opengraph.WithTimeout(g.cfg.fetchTimeout))
	}
	return opengraph.NewFetcher(opts...)
}

// Render turns Markdown into the full email document. Metadata failures
// degrade individual cards and never fail the render; only an empty input,
// an unusable issue date, template execution or cancellation return errors.
func (g *Generator) Render(ctx context.Context, markdown string) (*Result, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, ErrEmptyMarkdown
	}

	frontmatter, body := pipeline.ParseFrontmatter(pipeline.NormalizeLineEndings(markdown))
	sections := pipeline.ParseSections(body)

	date, err := g.issueDate(frontmatter)
	if err != nil {
		return nil, err
	}

	title := frontmatter["title"]
	if title == "" {
		title = g.site.DefaultTitle
	}
	if title == "" {
		title = DefaultTitle
	}

	res := &Result{
		Date:        date,
		DateDisplay: dateutil.Display(date, g.site.DateFormat),
		Title:       title,
		Ref:         FilePrefix + date,
		Frontmatter: frontmatter,
	}

	g.logger.WithFields(logrus.Fields{
		"date":  res.DateDisplay,
		"title": res.Title,
		"ref":   res.Ref,
	}).Info("rendering newsletter")

	r := &renderer{
		site:    g.site,
		cdn:     g.cdnOptions(),
		ref:     res.Ref,
		fetcher: g.fetcher,
		logger:  g.logger,
	}
	content, err := r.body(ctx, sections, frontmatter["greeting"])
	if err != nil {
		return nil, err
	}
	res.Cards = r.cards
	res.ReadingItems = r.readingItems

	if intro, ok := sections.Get(sectionIntroduction); ok {
		res.Preheader = preheader(intro)
	}

	html, err := g.document(res, content)
	if err != nil {
		return nil, err
	}
	res.HTML = html
	return res, nil
}

// Generate renders input and writes the document, replacing any file at
// the destination.
func (g *Generator) Generate(ctx context.Context, input Input) (*Result, error) {
	markdown, err := readInput(input)
	if err != nil {
		return nil, err
	}

	res, err := g.Render(ctx, markdown)
	if err != nil {
		return nil, err
	}

	out := input.OutputPath
	if out == "" {
		out = filepath.Join(g.outputDir, OutputFileName(res.Date))
	}
	if err := fileutil.WriteFileAtomic(out, res.HTML); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteHTML, err)
	}
	res.OutputPath = out

	g.logger.WithField("path", out).Info("newsletter generated")
	return res, nil
}

// OutputPath returns where Generate would write input. Only the
// frontmatter is looked at; nothing is fetched or written.
func (g *Generator) OutputPath(input Input) (string, error) {
	if input.OutputPath != "" {
		return input.OutputPath, nil
	}
	markdown, err := readInput(input)
	if err != nil {
		return "", err
	}
	frontmatter, _ := pipeline.ParseFrontmatter(pipeline.NormalizeLineEndings(markdown))
	date, err := g.issueDate(frontmatter)
	if err != nil {
		return "", err
	}
	return filepath.Join(g.outputDir, OutputFileName(date)), nil
}

// issueDate is the frontmatter date or the current month. It names the
// output file, so path separators are rejected.
func (g *Generator) issueDate(frontmatter map[string]string) (string, error) {
	date := dateutil.ResolveIssue(frontmatter["date"], g.now())
	if strings.ContainsAny(date, `/\`) || strings.Contains(date, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIssueDate, date)
	}
	return date, nil
}

func readInput(input Input) (string, error) {
	if input.Markdown != "" || input.Path == "" {
		return input.Markdown, nil
	}
	data, err := os.ReadFile(input.Path) // #nosec G304 -- user-provided input path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}
	return string(data), nil
}

// OutputFileName returns the default file name for an issue date.
func OutputFileName(date string) string {
	return FilePrefix + date + FileExt
}

func (g *Generator) cdnOptions() pipeline.CDNOptions {
	return pipeline.CDNOptions{
		Host:       g.site.StaticHost,
		PathPrefix: g.cdn.PathPrefix,
		Width:      g.cdn.Width,
		Quality:    g.cdn.Quality,
		Format:     g.cdn.Format,
	}
}
