package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-newsletter/internal/dateutil"
	"github.com/alnah/go-newsletter/internal/fileutil"
	"github.com/alnah/go-newsletter/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config field")
)

// AppDirName is the directory under os.UserConfigDir searched for named configs.
const AppDirName = "go-newsletter"

// MaxConfigSize limits config input to prevent memory exhaustion.
const MaxConfigSize = yamlutil.MaxInputSize

// Field length limits.
const (
	MaxNameLength   = 100  // Site or sender display name
	MaxEmailLength  = 254  // RFC 5321
	MaxURLLength    = 2048 // Browser limit
	MaxHostLength   = 253  // RFC 1035
	MaxLabelLength  = 50   // Footer link label
	MaxTitleLength  = 200  // Default newsletter title
	MaxFormatLength = dateutil.MaxDateFormatLength
	MaxPathLength   = 4096
	MaxFooterLinks  = 20
)

// Config holds all configuration for rendering and sending.
type Config struct {
	Site  SiteConfig  `yaml:"site"`
	Paths PathsConfig `yaml:"paths"`
	Fetch FetchConfig `yaml:"fetch"`
	CDN   CDNConfig   `yaml:"cdn"`
	Send  SendConfig  `yaml:"send"`
	DNS   DNSConfig   `yaml:"dns"`
}

// SiteConfig describes the publishing site and the email chrome.
type SiteConfig struct {
	Name          string `yaml:"name"`          // Header label, e.g. "philippdubach"
	URL           string `yaml:"url"`           // Home page, header link target
	Domain        string `yaml:"domain"`        // Own domain for inline link tracking
	StaticHost    string `yaml:"staticHost"`    // Host served through the image CDN
	ArchiveURL    string `yaml:"archiveURL"`    // Base of the "View in browser" link
	IconURL       string `yaml:"iconURL"`       // Header favicon
	FeedbackEmail string `yaml:"feedbackEmail"` // Footer mailto
	DefaultTitle  string `yaml:"defaultTitle"`  // Used when frontmatter has no title
	DateFormat    string `yaml:"dateFormat"`    // Display format, e.g. "MMMM YYYY"
	Links         []Link `yaml:"links"`         // Footer links
}

// Link is a footer link. Track adds ref/campaign parameters.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Track bool   `yaml:"track"`
}

// PathsConfig locates inputs, outputs, caches and templates.
type PathsConfig struct {
	InputDir    string `yaml:"inputDir"`
	OutputDir   string `yaml:"outputDir"`
	CacheDir    string `yaml:"cacheDir"`
	TemplateDir string `yaml:"templateDir"` // Empty = embedded template
	Subscribers string `yaml:"subscribers"`
	Tokens      string `yaml:"tokens"`
}

// FetchConfig controls OpenGraph metadata requests.
type FetchConfig struct {
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CDNConfig controls image URL rewriting.
type CDNConfig struct {
	PathPrefix string `yaml:"pathPrefix"`
	Width      int    `yaml:"width"`
	Quality    int    `yaml:"quality"`
	Format     string `yaml:"format"`
}

// SendConfig controls distribution.
type SendConfig struct {
	From           string        `yaml:"from"`
	ReplyTo        string        `yaml:"replyTo"`
	UnsubscribeURL string        `yaml:"unsubscribeURL"` // One-click endpoint, token appended
	ListID         string        `yaml:"listID"`
	FeedbackDomain string        `yaml:"feedbackDomain"`
	Interval       time.Duration `yaml:"interval"` // Pause between sends
	UploadURL      string        `yaml:"uploadURL"` // Shown in the post-send reminder
}

// DNSConfig controls the sender-domain authentication pre-check.
type DNSConfig struct {
	Server  string        `yaml:"server"` // host:port
	Timeout time.Duration `yaml:"timeout"`
	Checks  []DNSCheck    `yaml:"checks"`
}

// DNSCheck expects a TXT record at Name to contain Expect.
type DNSCheck struct {
	Label  string `yaml:"label"`
	Name   string `yaml:"name"`
	Expect string `yaml:"expect"`
}

// Validate checks field lengths and value shapes.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"site.name", c.Site.Name, MaxNameLength},
		{"site.url", c.Site.URL, MaxURLLength},
		{"site.domain", c.Site.Domain, MaxHostLength},
		{"site.staticHost", c.Site.StaticHost, MaxHostLength},
		{"site.archiveURL", c.Site.ArchiveURL, MaxURLLength},
		{"site.iconURL", c.Site.IconURL, MaxURLLength},
		{"site.feedbackEmail", c.Site.FeedbackEmail, MaxEmailLength},
		{"site.defaultTitle", c.Site.DefaultTitle, MaxTitleLength},
		{"site.dateFormat", c.Site.DateFormat, MaxFormatLength},
		{"paths.inputDir", c.Paths.InputDir, MaxPathLength},
		{"paths.outputDir", c.Paths.OutputDir, MaxPathLength},
		{"paths.cacheDir", c.Paths.CacheDir, MaxPathLength},
		{"paths.templateDir", c.Paths.TemplateDir, MaxPathLength},
		{"paths.subscribers", c.Paths.Subscribers, MaxPathLength},
		{"paths.tokens", c.Paths.Tokens, MaxPathLength},
		{"send.unsubscribeURL", c.Send.UnsubscribeURL, MaxURLLength},
		{"send.listID", c.Send.ListID, MaxHostLength},
		{"send.feedbackDomain", c.Send.FeedbackDomain, MaxHostLength},
		{"send.uploadURL", c.Send.UploadURL, MaxURLLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if len(c.Site.Links) > MaxFooterLinks {
		return fmt.Errorf("%w: site.links has %d entries (max %d)", ErrInvalidField, len(c.Site.Links), MaxFooterLinks)
	}
	for i, link := range c.Site.Links {
		if err := validateFieldLength(fmt.Sprintf("site.links[%d].label", i), link.Label, MaxLabelLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("site.links[%d].url", i), link.URL, MaxURLLength); err != nil {
			return err
		}
	}

	for _, u := range []struct{ name, value string }{
		{"site.url", c.Site.URL},
		{"site.archiveURL", c.Site.ArchiveURL},
		{"send.unsubscribeURL", c.Send.UnsubscribeURL},
	} {
		if u.value == "" {
			continue
		}
		if parsed, err := url.Parse(u.value); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL, got %q", ErrInvalidField, u.name, u.value)
		}
	}

	for _, a := range []struct{ name, value string }{
		{"send.from", c.Send.From},
		{"send.replyTo", c.Send.ReplyTo},
	} {
		if a.value == "" {
			continue
		}
		if err := validateFieldLength(a.name, a.value, MaxEmailLength+MaxNameLength); err != nil {
			return err
		}
		if _, err := mail.ParseAddress(a.value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidField, a.name, err)
		}
	}

	if c.Site.DateFormat != "" {
		if _, err := dateutil.ParseDateFormat(c.Site.DateFormat); err != nil {
			return fmt.Errorf("site.dateFormat: %w", err)
		}
	}

	if c.CDN.Width < 0 || c.CDN.Width > 4096 {
		return fmt.Errorf("%w: cdn.width must be between 0 and 4096, got %d", ErrInvalidField, c.CDN.Width)
	}
	if c.CDN.Quality < 0 || c.CDN.Quality > 100 {
		return fmt.Errorf("%w: cdn.quality must be between 0 and 100, got %d", ErrInvalidField, c.CDN.Quality)
	}

	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("%w: fetch.timeout cannot be negative", ErrInvalidField)
	}
	if c.Send.Interval < 0 {
		return fmt.Errorf("%w: send.interval cannot be negative", ErrInvalidField)
	}
	if c.DNS.Timeout < 0 {
		return fmt.Errorf("%w: dns.timeout cannot be negative", ErrInvalidField)
	}
	for i, check := range c.DNS.Checks {
		if check.Name == "" || check.Expect == "" {
			return fmt.Errorf("%w: dns.checks[%d] needs name and expect", ErrInvalidField, i)
		}
		if err := validateFieldLength(fmt.Sprintf("dns.checks[%d].name", i), check.Name, MaxHostLength); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used for philippdubach.com.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:          "philippdubach",
			URL:           "https://philippdubach.com",
			Domain:        "philippdubach.com",
			StaticHost:    "static.philippdubach.com",
			ArchiveURL:    "https://static.philippdubach.com/newsletter/",
			IconURL:       "https://philippdubach.com/icons/favicon-96x96.png",
			FeedbackEmail: "me@philippdubach.com",
			DefaultTitle:  "What you missed",
			DateFormat:    dateutil.DefaultDisplayFormat,
			Links: []Link{
				{Label: "Blog", URL: "https://philippdubach.com", Track: true},
				{Label: "Projects", URL: "https://philippdubach.com/projects/", Track: true},
				{Label: "Research", URL: "https://philippdubach.com/research/", Track: true},
				{Label: "GitHub", URL: "https://github.com/philippdubach", Track: true},
				{Label: "Bluesky", URL: "https://bsky.app/profile/philippdubach.com"},
			},
		},
		Paths: PathsConfig{
			InputDir:    "input",
			OutputDir:   "output",
			CacheDir:    ".og_cache",
			Subscribers: filepath.Join("distribution", "subscribers.csv"),
			Tokens:      filepath.Join("distribution", "unsubscribe_tokens.json"),
		},
		Fetch: FetchConfig{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			Timeout:   10 * time.Second,
		},
		CDN: CDNConfig{
			PathPrefix: "cdn-cgi/image",
			Width:      240,
			Quality:    80,
			Format:     "webp",
		},
		Send: SendConfig{
			From:           "Philipp Dubach <newsletter@m.philippdubach.com>",
			ReplyTo:        "me@philippdubach.com",
			UnsubscribeURL: "https://philippdubach.com/api/unsubscribe",
			ListID:         "newsletter.philippdubach.com",
			FeedbackDomain: "philippdubach.com",
			Interval:       600 * time.Millisecond,
			UploadURL:      "https://static.philippdubach.com/newsletter/",
		},
		DNS: DNSConfig{
			Server:  "8.8.8.8:53",
			Timeout: 5 * time.Second,
			Checks: []DNSCheck{
				{Label: "SPF", Name: "m.philippdubach.com", Expect: "v=spf1 include:amazonses.com"},
				{Label: "DKIM", Name: "resend._domainkey.m.philippdubach.com", Expect: "p=MIGfMA0GCSqGSIb3DQEBAQUAA"},
				{Label: "DMARC", Name: "_dmarc.m.philippdubach.com", Expect: "v=DMARC1"},
			},
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig, rejecting unknown fields, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yamlutil.DecodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-newsletter/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
