// Package distribution sends a rendered newsletter to a subscriber list.
//
// Each recipient gets its own message carrying a per-recipient unsubscribe
// token in the list headers. Sends run in subscriber order, paced by a
// limiter; a failed send is reported and the loop moves on. Issued tokens are
// merged into the token store once the loop ends, including after
// cancellation.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-newsletter/internal/fileutil"
	"github.com/alnah/go-newsletter/internal/mailer"
	"github.com/alnah/go-newsletter/internal/ratelimit"
	"github.com/alnah/go-newsletter/internal/subscribers"
	"github.com/alnah/go-newsletter/internal/tokens"
)

// Pattern matches rendered newsletter files.
const Pattern = "newsletter-*.html"

// Sentinel errors for distribution.
var (
	ErrNoNewsletter   = errors.New("no newsletter found")
	ErrReadNewsletter = errors.New("failed to read newsletter")
	ErrNoSubscribers  = errors.New("no valid subscribers")
	ErrTokenStore     = errors.New("failed to update token store")
)

// LatestNewsletter returns the newest rendered newsletter in dir.
func LatestNewsletter(dir string) (string, error) {
	path, err := fileutil.LatestMatch(dir, Pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoNewsletter, err)
	}
	return path, nil
}

// Stem returns the file name of path without its extension, which doubles
// as the newsletter id ("newsletter-2025-01").
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Headers are the sender identity and list values shared by every message.
type Headers struct {
	From           string
	ReplyTo        string
	UnsubscribeURL string
	ListID         string
	FeedbackDomain string
}

// Plan describes one distribution run.
type Plan struct {
	Path        string // Rendered newsletter HTML
	Subscribers []subscribers.Subscriber
	DryRun      bool // List recipients without sending or writing tokens
}

// Failure records a send that did not go through.
type Failure struct {
	Email string
	Err   error
}

// Summary reports a run.
type Summary struct {
	Newsletter string // Newsletter id
	Subject    string
	Sent       int
	Failed     int
	Failures   []Failure
	Tokens     int // Entries in the saved token store
}

// Distributor sends newsletters. Create with New.
type Distributor struct {
	sender     mailer.Sender
	limiter    ratelimit.Limiter
	headers    Headers
	siteName   string
	tokensPath string
	out        io.Writer
	logger     logrus.FieldLogger
	now        func() time.Time
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithLimiter paces sends. Defaults to ratelimit.Unlimited.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(d *Distributor) {
		if l != nil {
			d.limiter = l
		}
	}
}

// WithHeaders sets the sender identity and list header values.
func WithHeaders(h Headers) Option {
	return func(d *Distributor) {
		d.headers = h
	}
}

// WithSiteName sets the name used in fallback subjects.
func WithSiteName(name string) Option {
	return func(d *Distributor) {
		d.siteName = name
	}
}

// WithTokensPath sets the token store file. Without it, tokens are not
// persisted.
func WithTokensPath(path string) Option {
	return func(d *Distributor) {
		d.tokensPath = path
	}
}

// WithOutput sets where progress lines are printed. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(d *Distributor) {
		if w != nil {
			d.out = w
		}
	}
}

// WithLogger sets the logger for failed sends.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Distributor) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithNow sets the clock stamped on token entries.
func WithNow(now func() time.Time) Option {
	return func(d *Distributor) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Distributor. sender may be nil for dry runs only.
func New(sender mailer.Sender, opts ...Option) *Distributor {
	d := &Distributor{
		sender:  sender,
		limiter: ratelimit.Unlimited,
		out:     io.Discard,
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run distributes plan.Path to plan.Subscribers. Per-recipient failures are
// counted in the Summary and do not make Run fail. The returned error is set
// when the newsletter cannot be read, the run is cancelled, or the token
// store cannot be read or written.
func (d *Distributor) Run(ctx context.Context, plan Plan) (Summary, error) {
	if len(plan.Subscribers) == 0 {
		return Summary{}, ErrNoSubscribers
	}

	data, err := os.ReadFile(plan.Path) // #nosec G304 -- operator-provided path
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrReadNewsletter, err)
	}

	newsletter := Stem(plan.Path)
	sum := Summary{
		Newsletter: newsletter,
		Subject:    Subject(data, newsletter, d.siteName),
	}

	fmt.Fprintf(d.out, "\nSubject: %s\n", sum.Subject)
	fmt.Fprintf(d.out, "From: %s\n", d.headers.From)
	fmt.Fprintf(d.out, "Reply-To: %s\n", d.headers.ReplyTo)
	fmt.Fprintf(d.out, "Recipients: %d\n", len(plan.Subscribers))

	if plan.DryRun {
		fmt.Fprintln(d.out, "\n[DRY RUN] Would send to:")
		for _, sub := range plan.Subscribers {
			fmt.Fprintf(d.out, "  - %s\n", sub.Recipient())
		}
		sum.Sent = len(plan.Subscribers)
		return sum, nil
	}

	if d.sender == nil {
		return sum, mailer.ErrMissingAPIKey
	}

	store := tokens.Store{}
	if d.tokensPath != "" {
		store, err = tokens.Load(d.tokensPath)
		if err != nil {
			return sum, fmt.Errorf("%w: %v", ErrTokenStore, err)
		}
	}

	fmt.Fprintln(d.out, "\nSending emails...")
	runErr := d.sendAll(ctx, plan.Subscribers, string(data), store, &sum)

	if d.tokensPath != "" {
		if err := store.Save(d.tokensPath); err != nil {
			return sum, errors.Join(runErr, fmt.Errorf("%w: %v", ErrTokenStore, err))
		}
		sum.Tokens = len(store)
		fmt.Fprintf(d.out, "\nSaved %d unsubscribe tokens to %s\n", sum.Tokens, filepath.Base(d.tokensPath))
	}
	return sum, runErr
}

// sendAll runs the send loop. It returns the context error when cancelled.
func (d *Distributor) sendAll(ctx context.Context, subs []subscribers.Subscriber, html string, store tokens.Store, sum *Summary) error {
	total := len(subs)
	for i, sub := range subs {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		token := tokens.Token(sub.Email, sum.Newsletter)
		store.Record(token, tokens.NewEntry(sub.Email, sum.Newsletter, d.now()))

		id, err := d.sender.Send(ctx, d.message(sub, sum, html, token))
		if err != nil {
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{Email: sub.Email, Err: err})
			fmt.Fprintf(d.out, "  [%d/%d] Failed: %s - %v\n", i+1, total, sub.Email, err)
			d.logger.WithFields(logrus.Fields{"email": sub.Email, "error": err}).Debug("send failed")
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		sum.Sent++
		fmt.Fprintf(d.out, "  [%d/%d] Sent to %s (id: %s)\n", i+1, total, sub.Email, id)
	}
	return nil
}

func (d *Distributor) message(sub subscribers.Subscriber, sum *Summary, html, token string) *mailer.Message {
	return &mailer.Message{
		From:    d.headers.From,
		To:      []string{sub.Email},
		Subject: sum.Subject,
		HTML:    html,
		ReplyTo: d.headers.ReplyTo,
		Headers: mailer.NewsletterHeaders(mailer.HeaderParams{
			Token:          token,
			Newsletter:     sum.Newsletter,
			UnsubscribeURL: d.headers.UnsubscribeURL,
			ReplyTo:        d.headers.ReplyTo,
			ListID:         d.headers.ListID,
			FeedbackDomain: d.headers.FeedbackDomain,
		}),
		Tags: mailer.NewsletterTags(sum.Newsletter),
	}
}
