package main

// Notes:
// - runSendCmd: we drive the whole command through runMain with a scripted
//   prompt, a fake mail client, a fake DNS checker and a recorded browser.
// - Prompt order in the interactive flow: open preview (default yes),
//   proceed (default no), delay in seconds. A DNS failure adds a
//   "continue anyway" question first.
// - Network DNS and the Resend API are tested in their own packages.

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-newsletter/internal/dnsauth"
	"github.com/alnah/go-newsletter/internal/mailer"
	"github.com/alnah/go-newsletter/internal/tokens"
)

const (
	testNewsletterHTML = `<!DOCTYPE html><html><head><title>January issue</title></head><body>Hi</body></html>`
	testSubscribersCSV = "email,name\nann@example.com,Ann\nbob@example.com,\n"
	dnsChecksYAML      = `send:
  interval: 0s
dns:
  checks:
    - label: SPF
      name: m.example.com
      expect: v=spf1
    - label: DMARC
      name: _dmarc.m.example.com
      expect: v=DMARC1
`
)

// sendWorkspace prepares a rendered newsletter and a subscriber list.
func sendWorkspace(t *testing.T, extra string) workspace {
	t.Helper()
	ws := newWorkspace(t, extra)
	writeFile(t, ws.path("output", "newsletter-2025-01.html"), testNewsletterHTML)
	writeFile(t, ws.path("subscribers.csv"), testSubscribersCSV)
	return ws
}

func passingReport() dnsauth.Report {
	return dnsauth.Report{Results: []dnsauth.Result{
		{Check: dnsauth.Check{Label: "SPF", Name: "m.example.com"}, Status: dnsauth.Pass},
		{Check: dnsauth.Check{Label: "DMARC", Name: "_dmarc.m.example.com"}, Status: dnsauth.Pass},
	}}
}

func failingReport() dnsauth.Report {
	return dnsauth.Report{Results: []dnsauth.Result{
		{Check: dnsauth.Check{Label: "SPF", Name: "m.example.com"}, Status: dnsauth.Pass},
		{Check: dnsauth.Check{Label: "DMARC", Name: "_dmarc.m.example.com"}, Status: dnsauth.Fail, Detail: "Record not found"},
	}}
}

func sentTo(s *fakeSender) []string {
	var to []string
	for _, m := range s.sent {
		to = append(to, m.To...)
	}
	return to
}

// ---------------------------------------------------------------------------
// TestRunSend_DryRun - Recipients listed, nothing sent
// ---------------------------------------------------------------------------

func TestRunSend_DryRun(t *testing.T) {
	t.Parallel()

	ws := sendWorkspace(t, "")
	env := newTestEnv()

	code := runMain([]string{"newsletter", "send", "--config", ws.config, "--dry-run"}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, env.stderr)
	}

	stdout := env.stdout.String()
	for _, want := range []string{
		"Subject: January issue",
		"Recipients: 2",
		"[DRY RUN] Would send to:",
		"  - Ann <ann@example.com>",
		"  - bob@example.com",
		"Successful: 2",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q, got:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "REMINDER") {
		t.Error("dry run should not print the upload reminder")
	}
	if len(env.apiKeys) != 0 || len(env.sender.sent) != 0 {
		t.Error("dry run should not create a sender or send")
	}
	if len(env.prompter.prompts) != 0 {
		t.Errorf("dry run should not prompt, got %q", env.prompter.prompts)
	}
	if _, err := os.Stat(ws.path("tokens.json")); !os.IsNotExist(err) {
		t.Error("dry run should not write tokens")
	}
}

// ---------------------------------------------------------------------------
// TestRunSend_NoConfirm - Unattended send
// ---------------------------------------------------------------------------

func TestRunSend_NoConfirm(t *testing.T) {
	t.Parallel()

	ws := sendWorkspace(t, "")
	env := newTestEnv()
	env.vars[mailer.APIKeyEnv] = "re_test"

	code := runMain([]string{"newsletter", "send", "--config", ws.config, "--no-confirm"}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, env.stderr)
	}

	if diff := cmp.Diff([]string{"re_test"}, env.apiKeys); diff != "" {
		t.Errorf("api keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ann@example.com", "bob@example.com"}, sentTo(env.sender)); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
	if got := env.sender.sent[0].Subject; got != "January issue" {
		t.Errorf("Subject = %q, want January issue", got)
	}
	if env.checker.calls != 0 || len(env.prompter.prompts) != 0 || len(env.opened) != 0 {
		t.Error("--no-confirm should skip DNS, prompts and preview")
	}

	stdout := env.stdout.String()
	for _, want := range []string{
		"[1/2] Sent to ann@example.com (id: msg_1)",
		"[2/2] Sent to bob@example.com (id: msg_2)",
		"Saved 2 unsubscribe tokens to tokens.json",
		"Successful: 2",
		"Failed: 0",
		"REMINDER: Upload the HTML file",
		"File: newsletter-2025-01.html",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q, got:\n%s", want, stdout)
		}
	}

	data, err := os.ReadFile(ws.path("tokens.json"))
	if err != nil {
		t.Fatalf("reading tokens: %v", err)
	}
	var store map[string]tokens.Entry
	if err := json.Unmarshal(data, &store); err != nil {
		t.Fatalf("tokens file is not JSON: %v", err)
	}
	entry, ok := store[tokens.Token("ann@example.com", "newsletter-2025-01")]
	if !ok {
		t.Fatalf("token for ann missing from %v", store)
	}
	if entry.SentAt != "2025-01-15 09:30:00" {
		t.Errorf("SentAt = %q", entry.SentAt)
	}
}

func TestRunSend_PartialFailure(t *testing.T) {
	t.Parallel()

	ws := sendWorkspace(t, "")
	env := newTestEnv()
	env.vars[mailer.APIKeyEnv] = "re_test"
	env.sender.failFor["bob@example.com"] = true

	code := runMain([]string{"newsletter", "send", "--config", ws.config, "--no-confirm"}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, env.stderr)
	}

	stdout := env.stdout.String()
	for _, want := range []string{"[2/2] Failed: bob@example.com", "Successful: 1", "Failed: 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q, got:\n%s", want, stdout)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunSend_Interactive - Confirmation flow
// ---------------------------------------------------------------------------

func TestRunSend_Interactive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		report      dnsauth.Report
		answers     []string
		sleepErr    error
		wantSent    int
		wantOpened  int
		wantSlept   []time.Duration
		wantStdout  []string
		wantPrompts int
	}{
		{
			name:        "all checks pass and send now",
			report:      passingReport(),
			answers:     []string{"", "y", ""},
			wantSent:    2,
			wantOpened:  1,
			wantStdout:  []string{"All email authentication checks passed!", "NEWSLETTER DISTRIBUTION", "Recipients: 2", "Successful: 2"},
			wantPrompts: 3,
		},
		{
			name:        "decline preview",
			report:      passingReport(),
			answers:     []string{"n"},
			wantStdout:  []string{"\nAborted.\n"},
			wantPrompts: 1,
		},
		{
			name:        "decline sending",
			report:      passingReport(),
			answers:     []string{"", ""},
			wantOpened:  1,
			wantStdout:  []string{"Aborted."},
			wantPrompts: 2,
		},
		{
			name:        "dns failure declined",
			report:      failingReport(),
			answers:     []string{""},
			wantStdout:  []string{"[FAIL]  DMARC  - Record not found: _dmarc.m.example.com", "Warning: Failed checks: DMARC", "Aborted. Fix DNS records and try again."},
			wantPrompts: 1,
		},
		{
			name:        "dns failure accepted",
			report:      failingReport(),
			answers:     []string{"y", "", "y", "0"},
			wantSent:    2,
			wantOpened:  1,
			wantPrompts: 4,
		},
		{
			name:        "delayed send",
			report:      passingReport(),
			answers:     []string{"", "y", "3600"},
			wantSent:    2,
			wantOpened:  1,
			wantSlept:   []time.Duration{time.Hour},
			wantStdout:  []string{"Waiting 1 hour before sending...", "Scheduled send time: 2025-01-15 10:30:00", "Wait complete."},
			wantPrompts: 3,
		},
		{
			name:        "wait cancelled",
			report:      passingReport(),
			answers:     []string{"", "y", "60"},
			sleepErr:    context.Canceled,
			wantOpened:  1,
			wantSlept:   []time.Duration{time.Minute},
			wantStdout:  []string{"Wait cancelled by user. Aborting send."},
			wantPrompts: 3,
		},
		{
			name:        "input closed at prompt",
			report:      passingReport(),
			answers:     nil,
			wantStdout:  []string{"Aborted."},
			wantPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ws := sendWorkspace(t, dnsChecksYAML)
			env := newTestEnv(tt.answers...)
			env.vars[mailer.APIKeyEnv] = "re_test"
			env.checker.report = tt.report
			env.sleepErr = tt.sleepErr

			code := runMain([]string{"newsletter", "send", "--config", ws.config}, env.Environment)
			if code != ExitSuccess {
				t.Fatalf("exit code = %d, want 0\nstderr: %s", code, env.stderr)
			}

			if got := len(env.sender.sent); got != tt.wantSent {
				t.Errorf("sent %d messages, want %d", got, tt.wantSent)
			}
			if got := len(env.opened); got != tt.wantOpened {
				t.Errorf("opened %d previews, want %d", got, tt.wantOpened)
			}
			if tt.wantOpened > 0 && !strings.HasSuffix(env.opened[0], "/output/newsletter-2025-01.html") {
				t.Errorf("opened %q", env.opened[0])
			}
			if diff := cmp.Diff(tt.wantSlept, env.slept); diff != "" {
				t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
			}
			if got := len(env.prompter.prompts); got != tt.wantPrompts {
				t.Errorf("prompted %d times, want %d: %q", got, tt.wantPrompts, env.prompter.prompts)
			}
			if !env.prompter.closed {
				t.Error("prompter was not closed")
			}
			for _, want := range tt.wantStdout {
				if !strings.Contains(env.stdout.String(), want) {
					t.Errorf("stdout missing %q, got:\n%s", want, env.stdout)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunSend_Errors - Failures before any prompt
// ---------------------------------------------------------------------------

func TestRunSend_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(t *testing.T, ws workspace)
		args     func(ws workspace) []string
		apiKey   string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing api key",
			wantCode: ExitCredential,
			wantErr:  "RESEND_API_KEY",
		},
		{
			name: "no rendered newsletter",
			setup: func(t *testing.T, ws workspace) {
				if err := os.Remove(ws.path("output", "newsletter-2025-01.html")); err != nil {
					t.Fatal(err)
				}
			},
			apiKey:   "re_test",
			wantCode: ExitIO,
			wantErr:  "newsletter",
		},
		{
			name: "explicit newsletter missing",
			args: func(ws workspace) []string {
				return []string{"--newsletter", ws.path("output", "newsletter-1999-01.html")}
			},
			apiKey:   "re_test",
			wantCode: ExitIO,
			wantErr:  "newsletter file not found",
		},
		{
			name: "subscribers file missing",
			args: func(ws workspace) []string {
				return []string{"--subscribers", ws.path("nobody.csv")}
			},
			apiKey:   "re_test",
			wantCode: ExitIO,
			wantErr:  "subscribers file not found",
		},
		{
			name: "subscribers without email column",
			setup: func(t *testing.T, ws workspace) {
				writeFile(t, ws.path("subscribers.csv"), "name\nAnn\n")
			},
			apiKey:   "re_test",
			wantCode: ExitUsage,
			wantErr:  "'email' column",
		},
		{
			name: "empty subscriber list",
			setup: func(t *testing.T, ws workspace) {
				writeFile(t, ws.path("subscribers.csv"), "email,name\n")
			},
			apiKey:   "re_test",
			wantCode: ExitIO,
			wantErr:  "subscribers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ws := sendWorkspace(t, "")
			if tt.setup != nil {
				tt.setup(t, ws)
			}
			env := newTestEnv()
			if tt.apiKey != "" {
				env.vars[mailer.APIKeyEnv] = tt.apiKey
			}

			args := []string{"newsletter", "send", "--config", ws.config}
			if tt.args != nil {
				args = append(args, tt.args(ws)...)
			}
			code := runMain(args, env.Environment)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstderr: %s", code, tt.wantCode, env.stderr)
			}
			if !strings.Contains(env.stderr.String(), tt.wantErr) {
				t.Errorf("stderr missing %q, got:\n%s", tt.wantErr, env.stderr)
			}
			if len(env.sender.sent) != 0 {
				t.Error("nothing should be sent")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFileURL - Preview location
// ---------------------------------------------------------------------------

func TestFileURL(t *testing.T) {
	t.Parallel()

	got := fileURL("output/newsletter 2025-01.html")
	if !strings.HasPrefix(got, "file:///") {
		t.Errorf("fileURL() = %q, want file:/// prefix", got)
	}
	if !strings.HasSuffix(got, "/output/newsletter%202025-01.html") {
		t.Errorf("fileURL() = %q, want escaped path suffix", got)
	}
}
