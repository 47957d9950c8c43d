package newsletter

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-newsletter/internal/config"
)

// Site describes the publication around the content: header, footer and
// the domain whose links receive tracking parameters.
type Site struct {
	Name          string // Header label
	URL           string // Home page linked from the header
	Domain        string // Own domain; body links to it are tracked
	StaticHost    string // Host whose images go through the CDN
	ArchiveURL    string // Base of the "View in browser" link
	IconURL       string // Header icon, omitted when empty
	FeedbackEmail string // Footer contact, omitted when empty
	DefaultTitle  string // Title when frontmatter has none
	DateFormat    string // Display format for the issue date
	Links         []FooterLink
}

// FooterLink is one footer entry. Track adds ref and campaign parameters.
type FooterLink struct {
	Label string
	URL   string
	Track bool
}

// DefaultSite returns the site used when WithSite is not given.
func DefaultSite() Site {
	return SiteFromConfig(config.DefaultConfig().Site)
}

// SiteFromConfig converts the site section of a config file.
func SiteFromConfig(c config.SiteConfig) Site {
	links := make([]FooterLink, len(c.Links))
	for i, l := range c.Links {
		links[i] = FooterLink{Label: l.Label, URL: l.URL, Track: l.Track}
	}
	return Site{
		Name:          c.Name,
		URL:           c.URL,
		Domain:        c.Domain,
		StaticHost:    c.StaticHost,
		ArchiveURL:    c.ArchiveURL,
		IconURL:       c.IconURL,
		FeedbackEmail: c.FeedbackEmail,
		DefaultTitle:  c.DefaultTitle,
		DateFormat:    c.DateFormat,
		Links:         links,
	}
}

// CDN configures image URL rewriting for Site.StaticHost.
// Zero fields take the pipeline defaults (cdn-cgi/image, 240, 80, webp).
type CDN struct {
	PathPrefix string
	Width      int
	Quality    int
	Format     string
}

// LinkPreview is the metadata shown on a card.
type LinkPreview struct {
	URL         string
	Title       string
	Description string
	Image       string
	SiteName    string
}

// PreviewFetcher resolves preview metadata for a URL. Implementations must
// not fail: an unreachable page yields a degraded preview.
type PreviewFetcher interface {
	Fetch(ctx context.Context, url string) LinkPreview
}

// TemplateLoader loads the email document template by name.
type TemplateLoader interface {
	LoadTemplate(name string) (string, error)
}

// Option configures a Generator.
type Option func(*Generator)

// generatorConfig holds settings resolved in NewGenerator.
type generatorConfig struct {
	cacheDir     string
	refresh      bool
	userAgent    string
	fetchTimeout time.Duration
	httpClient   *http.Client
	templateDir  string
}

// WithSite sets the site chrome and tracking domain.
func WithSite(s Site) Option {
	return func(g *Generator) {
		g.site = s
	}
}

// WithCDN sets the image CDN parameters.
func WithCDN(c CDN) Option {
	return func(g *Generator) {
		g.cdn = c
	}
}

// WithFetcher replaces the OpenGraph fetcher. Cache and HTTP options are
// ignored when a custom fetcher is set.
func WithFetcher(f PreviewFetcher) Option {
	return func(g *Generator) {
		g.fetcher = f
	}
}

// WithCacheDir persists OpenGraph metadata under dir.
// Without it, metadata is only memoized for the generator's lifetime.
func WithCacheDir(dir string) Option {
	return func(g *Generator) {
		g.cfg.cacheDir = dir
	}
}

// WithRefresh ignores cached metadata and overwrites it with fresh fetches.
func WithRefresh(refresh bool) Option {
	return func(g *Generator) {
		g.cfg.refresh = refresh
	}
}

// WithUserAgent sets the User-Agent of metadata requests.
func WithUserAgent(ua string) Option {
	return func(g *Generator) {
		g.cfg.userAgent = ua
	}
}

// WithFetchTimeout bounds each metadata request.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithFetchTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("newsletter: WithFetchTimeout duration must be positive")
	}
	return func(g *Generator) {
		g.cfg.fetchTimeout = d
	}
}

// WithHTTPClient sets the client used for metadata requests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Generator) {
		g.cfg.httpClient = c
	}
}

// WithOutputDir sets where Generate writes newsletter-<date>.html.
func WithOutputDir(dir string) Option {
	return func(g *Generator) {
		g.outputDir = dir
	}
}

// WithTemplateDir loads templates from dir, falling back to the embedded
// ones for any template the directory lacks.
func WithTemplateDir(dir string) Option {
	return func(g *Generator) {
		g.cfg.templateDir = dir
	}
}

// WithTemplateLoader sets a custom template source. Takes precedence over
// WithTemplateDir.
func WithTemplateLoader(l TemplateLoader) Option {
	return func(g *Generator) {
		g.templateLoader = l
	}
}

// WithLogger sets the logger for progress and degraded fetches.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithNow sets the clock used when frontmatter has no date.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}
