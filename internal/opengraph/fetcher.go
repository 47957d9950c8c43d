package opengraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// Defaults for outbound metadata requests.
const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	DefaultTimeout   = 10 * time.Second
	MaxBodySize      = 5 << 20
)

// ErrHTTPStatus indicates a non-2xx response.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// Field lookup order. Later names are fallbacks.
var (
	titleTags       = []string{"og:title", "twitter:title"}
	descriptionTags = []string{"og:description", "twitter:description"}
	imageTags       = []string{"og:image", "twitter:image"}
	siteNameTags    = []string{"og:site_name"}
)

// Fetcher resolves OpenGraph records through an in-process memo, the
// persistent Store, and finally the network. Only successful results are
// memoized or stored.
type Fetcher struct {
	client    *http.Client
	store     Store
	memo      *cache.Cache
	userAgent string
	timeout   time.Duration
	refresh   bool
	logger    logrus.FieldLogger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithStore sets the persistent cache. Nil disables persistence.
func WithStore(s Store) Option {
	return func(f *Fetcher) {
		f.store = s
	}
}

// WithHTTPClient sets the HTTP client used for page requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout bounds each page request.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("opengraph: WithTimeout duration must be positive")
	}
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRefresh makes the fetcher ignore existing cache entries and
// overwrite them with fresh results.
func WithRefresh(refresh bool) Option {
	return func(f *Fetcher) {
		f.refresh = refresh
	}
}

// WithLogger sets the logger for fetch progress and failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a Fetcher. Without WithStore nothing is persisted.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		memo:      cache.New(cache.NoExpiration, 0),
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the record for rawURL. It never fails: network and parse
// errors yield a degraded record built from the URL alone, which is logged
// and not cached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Record {
	if v, ok := f.memo.Get(rawURL); ok {
		return v.(Record)
	}

	log := f.logger.WithField("url", rawURL)

	if f.store != nil && !f.refresh {
		rec, ok, err := f.store.Get(rawURL)
		if err != nil {
			log.WithError(err).Warn("reading opengraph cache")
		}
		if ok {
			log.Debug("opengraph cache hit")
			f.memo.Set(rawURL, rec, cache.NoExpiration)
			return rec
		}
	}

	rec, err := f.fetchRemote(ctx, rawURL)
	if err != nil {
		log.WithError(err).Warn("fetching opengraph metadata failed")
		return Fallback(rawURL)
	}

	if f.store != nil {
		if err := f.store.Put(rawURL, rec); err != nil {
			log.WithError(err).Warn("writing opengraph cache")
		}
	}
	f.memo.Set(rawURL, rec, cache.NoExpiration)
	log.WithField("title", rec.Title).Info("fetched opengraph metadata")
	return rec
}

// Fallback builds the degraded record used when a page cannot be fetched.
func Fallback(rawURL string) Record {
	rec := Record{URL: rawURL, Title: rawURL}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rec
	}
	rec.SiteName = u.Host
	if seg := path.Base(u.Path); u.Path != "" && !strings.HasSuffix(u.Path, "/") && seg != "." && seg != "/" {
		rec.Title = seg
	}
	return rec
}

func (f *Fetcher) fetchRemote(ctx context.Context, rawURL string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Record{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Record{}, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, MaxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return Record{}, fmt.Errorf("decoding body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Record{}, fmt.Errorf("parsing HTML: %w", err)
	}

	return Extract(doc, rawURL, resp.Request.URL), nil
}

// Extract reads metadata from a parsed page. final is the URL the page was
// served from after redirects; it resolves relative images and supplies
// the fallback site name.
func Extract(doc *goquery.Document, requested string, final *url.URL) Record {
	rec := Record{
		URL:         requested,
		Title:       metaContent(doc, titleTags...),
		Description: metaContent(doc, descriptionTags...),
		Image:       metaContent(doc, imageTags...),
		SiteName:    metaContent(doc, siteNameTags...),
	}

	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if rec.Description == "" {
		rec.Description = metaContent(doc, "description")
	}
	if rec.SiteName == "" && final != nil {
		rec.SiteName = final.Host
	}
	if rec.Image != "" && final != nil {
		if ref, err := url.Parse(rec.Image); err == nil && !ref.IsAbs() {
			rec.Image = final.ResolveReference(ref).String()
		}
	}
	return rec
}

// metaContent returns the first non-empty content of a meta tag whose
// property or name attribute matches one of names, tried in order.
func metaContent(doc *goquery.Document, names ...string) string {
	metas := doc.Find("meta")
	for _, name := range names {
		var content string
		metas.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.EqualFold(s.AttrOr("property", ""), name) && !strings.EqualFold(s.AttrOr("name", ""), name) {
				return true
			}
			content = strings.TrimSpace(s.AttrOr("content", ""))
			return content == ""
		})
		if content != "" {
			return content
		}
	}
	return ""
}
