package main

import (
	"errors"
	"os"

	newsletter "github.com/alnah/go-newsletter"
	"github.com/alnah/go-newsletter/internal/config"
	"github.com/alnah/go-newsletter/internal/distribution"
	"github.com/alnah/go-newsletter/internal/mailer"
	"github.com/alnah/go-newsletter/internal/subscribers"
	"github.com/alnah/go-newsletter/internal/tokens"
)

// Exit codes for the newsletter CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // Rendered, sent, or aborted by the user
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, config, or validation
	ExitIO         = 3 // Missing input, newsletter or subscriber file
	ExitCredential = 4 // Mail API credential missing
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, ErrAborted) {
		return ExitSuccess
	}

	// Credential errors (exit 4)
	if errors.Is(err, mailer.ErrMissingAPIKey) {
		return ExitCredential
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, newsletter.ErrReadMarkdown) ||
		errors.Is(err, newsletter.ErrWriteHTML) ||
		errors.Is(err, distribution.ErrNoNewsletter) ||
		errors.Is(err, distribution.ErrReadNewsletter) ||
		errors.Is(err, distribution.ErrNoSubscribers) ||
		errors.Is(err, distribution.ErrTokenStore) ||
		errors.Is(err, subscribers.ErrNotFound) ||
		errors.Is(err, tokens.ErrParse) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, subscribers.ErrMissingEmailColumn) ||
		errors.Is(err, subscribers.ErrParse) ||
		errors.Is(err, newsletter.ErrEmptyMarkdown) ||
		errors.Is(err, newsletter.ErrInvalidIssueDate) ||
		errors.Is(err, newsletter.ErrTemplate) ||
		errors.Is(err, newsletter.ErrInvalidTemplateDir) {
		return ExitUsage
	}

	return ExitGeneral
}
