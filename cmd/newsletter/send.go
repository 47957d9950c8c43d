package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-newsletter/internal/config"
	"github.com/alnah/go-newsletter/internal/distribution"
	"github.com/alnah/go-newsletter/internal/dnsauth"
	"github.com/alnah/go-newsletter/internal/fileutil"
	"github.com/alnah/go-newsletter/internal/hints"
	"github.com/alnah/go-newsletter/internal/mailer"
	"github.com/alnah/go-newsletter/internal/ratelimit"
	"github.com/alnah/go-newsletter/internal/subscribers"
)

const rule = "============================================================"

// sendTarget is what a send run resolved before any prompt.
type sendTarget struct {
	path        string
	subscribers []subscribers.Subscriber
	sender      mailer.Sender
}

// runSendCmd distributes a rendered newsletter to the subscriber list.
func runSendCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseSendFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: unexpected argument %q (use --newsletter)", ErrUsage, positional[0])
	}

	cfg, err := loadConfig(flags.common.config, loadEnvConfig(env.Getenv))
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, flags.common)

	target, err := resolveSendTarget(flags, cfg, env)
	if err != nil {
		return err
	}

	if !flags.noConfirm && !flags.dryRun {
		if err := confirmSend(ctx, target, cfg, env, logger); err != nil {
			return err
		}
	}

	limiter := ratelimit.Unlimited
	if !flags.dryRun {
		limiter = ratelimit.NewFixed(cfg.Send.Interval)
	}

	d := distribution.New(target.sender,
		distribution.WithLimiter(limiter),
		distribution.WithHeaders(distribution.Headers{
			From:           cfg.Send.From,
			ReplyTo:        cfg.Send.ReplyTo,
			UnsubscribeURL: cfg.Send.UnsubscribeURL,
			ListID:         cfg.Send.ListID,
			FeedbackDomain: cfg.Send.FeedbackDomain,
		}),
		distribution.WithSiteName(cfg.Site.Domain),
		distribution.WithTokensPath(cfg.Paths.Tokens),
		distribution.WithOutput(env.Stdout),
		distribution.WithLogger(logger),
		distribution.WithNow(env.Now),
	)

	sum, runErr := d.Run(ctx, distribution.Plan{
		Path:        target.path,
		Subscribers: target.subscribers,
		DryRun:      flags.dryRun,
	})

	printSummary(env.Stdout, sum)
	if !flags.dryRun && sum.Sent > 0 {
		printUploadReminder(env.Stdout, target.path, cfg.Send.UploadURL)
	}
	return runErr
}

// resolveSendTarget locates the newsletter and subscribers and builds the
// mail client. Everything that can fail without user input fails here.
func resolveSendTarget(flags *sendFlags, cfg *config.Config, env *Environment) (*sendTarget, error) {
	t := &sendTarget{path: flags.newsletter}

	if t.path == "" {
		latest, err := distribution.LatestNewsletter(cfg.Paths.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("%w%s", err, hints.ForNoNewsletter())
		}
		t.path = latest
	} else if !fileutil.FileExists(t.path) {
		return nil, fmt.Errorf("%w: newsletter file not found: %s%s", distribution.ErrNoNewsletter, t.path, hints.ForNoNewsletter())
	}

	subsPath := flags.subscribers
	if subsPath == "" {
		subsPath = cfg.Paths.Subscribers
	}
	subs, err := subscribers.Load(subsPath)
	if err != nil {
		return nil, fmt.Errorf("loading subscribers: %w%s", err, hints.ForSubscribers())
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w in %s", distribution.ErrNoSubscribers, subsPath)
	}
	t.subscribers = subs

	if flags.dryRun {
		return t, nil
	}

	apiKey := env.Getenv(mailer.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w%s", mailer.ErrMissingAPIKey, hints.ForMissingAPIKey())
	}
	t.sender, err = env.NewSender(apiKey)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// confirmSend runs the interactive pre-send flow: DNS check, newsletter
// review in the browser, final confirmation and an optional delay.
func confirmSend(ctx context.Context, t *sendTarget, cfg *config.Config, env *Environment, logger logrus.FieldLogger) error {
	p := env.NewPrompter()
	defer p.Close()

	if err := checkDNS(ctx, p, cfg, env, logger); err != nil {
		return err
	}

	out := env.Stdout
	fmt.Fprintf(out, "\n%s\nNEWSLETTER DISTRIBUTION\n%s\n", rule, rule)
	fmt.Fprintf(out, "\nNewsletter: %s\n", filepath.Base(t.path))
	fmt.Fprintf(out, "Recipients: %d\n", len(t.subscribers))
	fmt.Fprintf(out, "Sender: %s\n", cfg.Send.From)
	fmt.Fprintf(out, "Reply-To: %s\n", cfg.Send.ReplyTo)

	ok, err := confirm(p, "Is this the correct newsletter? Open in browser to verify?", true)
	if err != nil {
		return err
	}
	if !ok {
		return abort("Aborted.")
	}

	fmt.Fprintf(out, "\nOpening %s in browser...\n", filepath.Base(t.path))
	if hints.IsHeadless() {
		fmt.Fprintf(out, "warning: no desktop detected%s\n", hints.ForBrowserOpen())
	}
	env.OpenBrowser(fileURL(t.path))

	ok, err = confirm(p, "Proceed with sending?", false)
	if err != nil {
		return err
	}
	if !ok {
		return abort("Aborted.")
	}

	fmt.Fprintf(out, "\n%s\nOPTIONAL DELAY\n%s\n", strings.Repeat("-", len(rule)), strings.Repeat("-", len(rule)))
	fmt.Fprintln(out, "Enter a delay in seconds (0 = send immediately)")
	fmt.Fprintln(out, "Examples: 0 (now), 3600 (1 hour), 7200 (2 hours), 43200 (12 hours)")

	delay, err := askDelay(p, out)
	if err != nil {
		return err
	}
	if delay > 0 {
		return waitBeforeSend(ctx, delay, env)
	}
	return nil
}

// checkDNS verifies the sender domain and asks whether to continue when a
// check failed.
func checkDNS(ctx context.Context, p Prompter, cfg *config.Config, env *Environment, logger logrus.FieldLogger) error {
	if len(cfg.DNS.Checks) == 0 {
		return nil
	}

	report, err := runDNSChecks(ctx, cfg, env, logger)
	if err != nil {
		return abort("Aborted.")
	}
	printDNSReport(env.Stdout, report)

	if report.AllPassed() {
		return nil
	}
	ok, err := confirm(p, "DNS checks failed. Continue anyway?", false)
	if err != nil {
		return err
	}
	if !ok {
		return abort("Aborted. Fix DNS records and try again.")
	}
	return nil
}

// runDNSChecks runs the configured checks with the configured resolver.
func runDNSChecks(ctx context.Context, cfg *config.Config, env *Environment, logger logrus.FieldLogger) (dnsauth.Report, error) {
	opts := []dnsauth.Option{dnsauth.WithServer(cfg.DNS.Server), dnsauth.WithLogger(logger)}
	if cfg.DNS.Timeout > 0 {
		opts = append(opts, dnsauth.WithTimeout(cfg.DNS.Timeout))
	}

	checks := make([]dnsauth.Check, len(cfg.DNS.Checks))
	for i, c := range cfg.DNS.Checks {
		checks[i] = dnsauth.Check{Label: c.Label, Name: c.Name, Expect: c.Expect}
	}
	return env.NewChecker(opts...).Run(ctx, checks)
}

// printDNSReport prints one line per check and a verdict.
func printDNSReport(w io.Writer, report dnsauth.Report) {
	fmt.Fprintf(w, "\n%s\nEMAIL AUTHENTICATION CHECK\n%s\n", rule, rule)

	for _, r := range report.Results {
		switch r.Status {
		case dnsauth.Pass:
			fmt.Fprintf(w, "  [OK]    %-6s - %s\n", r.Check.Label, r.Check.Name)
		case dnsauth.Fail:
			fmt.Fprintf(w, "  [FAIL]  %-6s - %s: %s\n", r.Check.Label, r.Detail, r.Check.Name)
		default:
			fmt.Fprintf(w, "  [WARN]  %-6s - %s: %s\n", r.Check.Label, r.Detail, r.Check.Name)
		}
	}
	fmt.Fprintln(w)

	if report.AllPassed() {
		fmt.Fprintln(w, "All email authentication checks passed!")
		return
	}
	fmt.Fprintf(w, "Warning: Failed checks: %s\n", strings.Join(report.Failed(), ", "))
	fmt.Fprintf(w, "   This may cause deliverability issues, especially with Apple Mail.%s\n", hints.ForDNS())
}

// waitBeforeSend sleeps for d, holding a wake lock where supported.
// Cancelling aborts the send.
func waitBeforeSend(ctx context.Context, d time.Duration, env *Environment) error {
	out := env.Stdout
	fmt.Fprintf(out, "\nWaiting %s before sending...\n", formatDelay(d))
	if env.HasWakeLock() {
		fmt.Fprintln(out, "   System will stay awake during this time")
	} else {
		fmt.Fprintln(out, "   Note: caffeinate not available, using regular sleep")
	}
	fmt.Fprintf(out, "   Scheduled send time: %s\n", env.Now().Add(d).Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, "   Press Ctrl+C to cancel")

	if err := env.Sleep(ctx, d); err != nil {
		return abort("Wait cancelled by user. Aborting send.")
	}
	fmt.Fprintln(out, "\nWait complete. Proceeding with send...")
	return nil
}

// printSummary prints the send counts.
func printSummary(w io.Writer, sum distribution.Summary) {
	fmt.Fprintf(w, "\n%s\nSUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(w, "Successful: %d\n", sum.Sent)
	fmt.Fprintf(w, "Failed: %d\n", sum.Failed)
}

// printUploadReminder reminds to publish the file behind "View in browser".
func printUploadReminder(w io.Writer, path, uploadURL string) {
	line := strings.Repeat("-", len(rule))
	fmt.Fprintf(w, "\n%s\n", line)
	fmt.Fprintln(w, "REMINDER: Upload the HTML file for 'View in Browser' link")
	fmt.Fprintf(w, "  File: %s\n", filepath.Base(path))
	if uploadURL != "" {
		fmt.Fprintf(w, "  Upload to: %s\n", uploadURL)
	}
	fmt.Fprintln(w, line)
}

// fileURL returns a file:// URL for path.
func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed // Windows drive paths
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}
