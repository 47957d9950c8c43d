package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-newsletter/internal/dnsauth"
	"github.com/alnah/go-newsletter/internal/mailer"
	"github.com/alnah/go-newsletter/internal/process"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the interactive prompt and the outbound services.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// NewPrompter opens the terminal prompt used by send confirmations.
	NewPrompter func() Prompter
	// NewSender builds the mail API client for an API key.
	NewSender func(apiKey string) (mailer.Sender, error)
	// NewChecker builds the DNS checker for doctor and send.
	NewChecker func(opts ...dnsauth.Option) DNSChecker
	// OpenBrowser shows a local file or URL to the user.
	OpenBrowser func(url string)
	// Sleep waits before a scheduled send.
	Sleep func(ctx context.Context, d time.Duration) error
	// HasWakeLock reports whether Sleep keeps the machine awake.
	HasWakeLock func() bool
	// LookPathBrowser locates a browser for doctor.
	LookPathBrowser func() (string, bool)
}

// DNSChecker runs sender-domain checks.
type DNSChecker interface {
	Run(ctx context.Context, checks []dnsauth.Check) (dnsauth.Report, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		NewPrompter: newLinerPrompter,
		NewSender: func(apiKey string) (mailer.Sender, error) {
			return mailer.NewResendSender(apiKey)
		},
		NewChecker: func(opts ...dnsauth.Option) DNSChecker {
			return dnsauth.NewChecker(opts...)
		},
		OpenBrowser:     launcher.Open,
		Sleep:           process.Sleep,
		HasWakeLock:     process.HasWakeLock,
		LookPathBrowser: launcher.LookPath,
	}
}
