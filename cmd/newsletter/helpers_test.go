package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-newsletter/internal/dnsauth"
	"github.com/alnah/go-newsletter/internal/mailer"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - scripted prompt, fake sender, fake DNS checker
// ---------------------------------------------------------------------------

// scriptedPrompter answers prompts in order and aborts once answers run out,
// like Ctrl+D at a real terminal.
type scriptedPrompter struct {
	answers []string
	prompts []string
	closed  bool
}

func (p *scriptedPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.answers) == 0 {
		return "", abort("Aborted.")
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompter) Close() error {
	p.closed = true
	return nil
}

// fakeSender records messages and fails for listed addresses.
type fakeSender struct {
	mu      sync.Mutex
	sent    []*mailer.Message
	failFor map[string]bool
}

func (s *fakeSender) Send(_ context.Context, msg *mailer.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, to := range msg.To {
		if s.failFor[to] {
			return "", fmt.Errorf("%w: rejected %s", mailer.ErrSend, to)
		}
	}
	s.sent = append(s.sent, msg)
	return fmt.Sprintf("msg_%d", len(s.sent)), nil
}

// fakeChecker returns a fixed report.
type fakeChecker struct {
	report dnsauth.Report
	err    error
	calls  int
}

func (c *fakeChecker) Run(_ context.Context, checks []dnsauth.Check) (dnsauth.Report, error) {
	c.calls++
	if c.err != nil {
		return dnsauth.Report{}, c.err
	}
	return c.report, nil
}

// testEnv bundles an Environment with the fakes behind it.
type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	vars     map[string]string
	prompter *scriptedPrompter
	sender   *fakeSender
	checker  *fakeChecker
	opened   []string
	slept    []time.Duration
	sleepErr error
	apiKeys  []string
}

var testNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.Local)

func newTestEnv(answers ...string) *testEnv {
	te := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		vars:     map[string]string{},
		prompter: &scriptedPrompter{answers: answers},
		sender:   &fakeSender{failFor: map[string]bool{}},
		checker:  &fakeChecker{},
	}
	te.Environment = &Environment{
		Now:         func() time.Time { return testNow },
		Stdout:      te.stdout,
		Stderr:      te.stderr,
		Getenv:      func(key string) string { return te.vars[key] },
		NewPrompter: func() Prompter { return te.prompter },
		NewSender: func(apiKey string) (mailer.Sender, error) {
			te.apiKeys = append(te.apiKeys, apiKey)
			return te.sender, nil
		},
		NewChecker: func(...dnsauth.Option) DNSChecker { return te.checker },
		OpenBrowser: func(url string) {
			te.opened = append(te.opened, url)
		},
		Sleep: func(_ context.Context, d time.Duration) error {
			te.slept = append(te.slept, d)
			return te.sleepErr
		},
		HasWakeLock:     func() bool { return false },
		LookPathBrowser: func() (string, bool) { return "", false },
	}
	return te
}

// workspace is a temporary project layout with a config pointing into it.
type workspace struct {
	dir    string
	config string
}

func (w workspace) path(parts ...string) string {
	return filepath.Join(append([]string{w.dir}, parts...)...)
}

// newWorkspace writes a config whose paths live under a temp dir. extra is
// appended to the YAML and may set the send or dns sections.
func newWorkspace(t *testing.T, extra string) workspace {
	t.Helper()

	dir := t.TempDir()
	for _, sub := range []string{"input", "output"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			t.Fatalf("creating %s: %v", sub, err)
		}
	}

	cfg := fmt.Sprintf(`paths:
  inputDir: %q
  outputDir: %q
  cacheDir: %q
  subscribers: %q
  tokens: %q
`,
		filepath.Join(dir, "input"),
		filepath.Join(dir, "output"),
		filepath.Join(dir, "cache"),
		filepath.Join(dir, "subscribers.csv"),
		filepath.Join(dir, "tokens.json"),
	)
	if extra == "" {
		extra = "send:\n  interval: 0s\ndns:\n  checks: []\n"
	}
	cfg += extra

	path := filepath.Join(dir, "newsletter.yaml")
	writeFile(t, path, cfg)
	return workspace{dir: dir, config: path}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
