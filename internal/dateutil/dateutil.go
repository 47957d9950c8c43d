// Package dateutil handles newsletter issue dates ("YYYY-MM") and their
// human-readable display.
package dateutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid display format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// ErrInvalidIssueDate indicates a value that is not a YYYY-MM month.
var ErrInvalidIssueDate = errors.New("invalid issue date")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// IssueLayout is the Go layout of an issue identifier date.
const IssueLayout = "2006-01"

// DefaultDisplayFormat renders "2025-01" as "January 2025".
const DefaultDisplayFormat = "MMMM YYYY"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"M", "1"},
}

// DisplayPresets provides named shortcuts for common display formats.
var DisplayPresets = map[string]string{
	"long":  "MMMM YYYY",
	"short": "MMM YYYY",
	"iso":   "YYYY-MM",
}

var issueDateRe = regexp.MustCompile(`(\d{4}-\d{2})$`)

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M. Bracketed text is kept literally.
// Named presets (long, short, iso) are accepted case-insensitively.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}
	if preset, ok := DisplayPresets[strings.ToLower(format)]; ok {
		format = preset
	}

	var result strings.Builder
	result.Grow(len(format) + 8)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// CurrentIssue returns the issue date for the month containing t.
func CurrentIssue(t time.Time) string {
	return t.Format(IssueLayout)
}

// ParseIssue parses a "YYYY-MM" value.
func ParseIssue(value string) (time.Time, error) {
	t, err := time.Parse(IssueLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidIssueDate, value)
	}
	return t, nil
}

// ResolveIssue returns value when set, or the current month for "" and "auto".
func ResolveIssue(value string, now time.Time) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "auto") {
		return CurrentIssue(now)
	}
	return value
}

// Display renders an issue date with format (DefaultDisplayFormat when
// empty). Values that do not parse as YYYY-MM are returned unchanged.
func Display(issue, format string) string {
	t, err := ParseIssue(issue)
	if err != nil {
		return issue
	}
	if format == "" {
		format = DefaultDisplayFormat
	}
	goFmt, err := ParseDateFormat(format)
	if err != nil {
		return issue
	}
	return t.Format(goFmt)
}

// IssueFromStem extracts the trailing YYYY-MM of a file stem such as
// "newsletter-2026-01". ok is false when the stem carries no valid month.
func IssueFromStem(stem string) (time.Time, bool) {
	m := issueDateRe.FindStringSubmatch(stem)
	if m == nil {
		return time.Time{}, false
	}
	t, err := ParseIssue(m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
