// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-newsletter/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// IsHeadless reports whether the process likely has no desktop to open a browser on.
func IsHeadless() bool {
	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
	return inCI || IsInContainer()
}

// ForBrowserOpen returns hints for failures opening the newsletter preview.
func ForBrowserOpen() string {
	var hints []string

	if IsHeadless() {
		hints = append(hints, "no desktop detected, use --no-confirm in CI/Docker")
	}
	hints = append(hints, "open the HTML file manually to review it")

	return formatHints(hints)
}

// ForMissingAPIKey returns hints for a missing mail API credential.
func ForMissingAPIKey() string {
	return format("set RESEND_API_KEY in the environment or a .env file (keys: https://resend.com/api-keys)")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-newsletter/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-newsletter") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForSubscribers returns hints for an unreadable or malformed subscriber list.
func ForSubscribers() string {
	return format("expected a CSV with a header row containing an 'email' column (optional 'name'); use --subscribers to point elsewhere")
}

// ForNoNewsletter returns hints when no rendered newsletter can be found.
func ForNoNewsletter() string {
	return format("run 'newsletter render' first or pass --newsletter")
}

// ForNoInput returns hints when no Markdown source can be found.
func ForNoInput(inputDir string) string {
	if inputDir == "" {
		return format("pass the Markdown file as an argument")
	}
	return format("add a newsletter-YYYY-MM.md file to " + inputDir + " or pass a path")
}

// ForDNS returns hints for failed sender-domain authentication checks.
func ForDNS() string {
	return format("verify the domain records: https://resend.com/docs/dashboard/domains/introduction")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
