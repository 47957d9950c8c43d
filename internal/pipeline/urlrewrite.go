package pipeline

import (
	"fmt"
	"net/url"
	"strings"
)

// Image CDN defaults: 240px is twice the 120px card thumbnail for retina.
const (
	DefaultCDNPathPrefix = "cdn-cgi/image"
	DefaultCDNWidth      = 240
	DefaultCDNQuality    = 80
	DefaultCDNFormat     = "webp"
)

// CDNOptions describes the image transformation endpoint of the static host.
type CDNOptions struct {
	Host       string // static asset host, e.g. static.example.com
	PathPrefix string // transformation prefix, e.g. cdn-cgi/image
	Width      int
	Quality    int
	Format     string
}

func (o CDNOptions) withDefaults() CDNOptions {
	if o.PathPrefix == "" {
		o.PathPrefix = DefaultCDNPathPrefix
	}
	o.PathPrefix = strings.Trim(o.PathPrefix, "/")
	if o.Width <= 0 {
		o.Width = DefaultCDNWidth
	}
	if o.Quality <= 0 {
		o.Quality = DefaultCDNQuality
	}
	if o.Format == "" {
		o.Format = DefaultCDNFormat
	}
	return o
}

// OptimizeImageURL routes images served from opts.Host through the CDN
// transformation prefix. Empty input, other hosts and already rewritten URLs
// are returned unchanged. The query string is preserved.
func OptimizeImageURL(raw string, opts CDNOptions) string {
	if raw == "" || opts.Host == "" {
		return raw
	}
	opts = opts.withDefaults()

	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Hostname(), opts.Host) {
		return raw
	}
	if strings.Contains(u.Path, "/"+opts.PathPrefix+"/") {
		return raw
	}

	out := fmt.Sprintf("https://%s/%s/width=%d,quality=%d,format=%s/%s",
		opts.Host, opts.PathPrefix, opts.Width, opts.Quality, opts.Format,
		strings.TrimPrefix(u.EscapedPath(), "/"))
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}

// AddTrackingParams sets ref (and campaign when withCampaign) to tag,
// keeping every other component of the URL. mailto: links and unparsable
// URLs are returned unchanged.
func AddTrackingParams(raw, tag string, withCampaign bool) string {
	if tag == "" || strings.HasPrefix(strings.ToLower(raw), "mailto:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	q.Set("ref", tag)
	if withCampaign {
		q.Set("campaign", tag)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// IsOwnDomain reports whether raw points at domain or one of its subdomains.
func IsOwnDomain(raw, domain string) bool {
	if domain == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// TrackOwnLink adds tracking parameters only to links on the site's own domain.
func TrackOwnLink(raw, tag, domain string) string {
	if !IsOwnDomain(raw, domain) {
		return raw
	}
	return AddTrackingParams(raw, tag, true)
}
