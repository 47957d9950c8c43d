package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-newsletter/internal/config"
	"github.com/alnah/go-newsletter/internal/dnsauth"
	"github.com/alnah/go-newsletter/internal/fileutil"
	"github.com/alnah/go-newsletter/internal/hints"
	"github.com/alnah/go-newsletter/internal/mailer"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Mail     mailInfo    `json:"mail"`
	DNS      []dnsInfo   `json:"dns"`
	Browser  browserInfo `json:"browser"`
	Env      envInfo     `json:"environment"`
	Paths    pathsInfo   `json:"paths"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// mailInfo holds mail API readiness.
type mailInfo struct {
	APIKey bool `json:"api_key"`
}

// dnsInfo holds one sender-domain check.
type dnsInfo struct {
	Label  string `json:"label"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// browserInfo holds browser detection results for the send preview.
type browserInfo struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	CI       bool   `json:"ci"`
	Headless bool   `json:"headless"`
	WakeLock bool   `json:"wake_lock"`
}

// pathsInfo holds filesystem check results.
type pathsInfo struct {
	OutputDir         string `json:"output_dir"`
	OutputWritable    bool   `json:"output_writable"`
	Subscribers       string `json:"subscribers"`
	SubscribersExists bool   `json:"subscribers_exists"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return reportError(fmt.Errorf("%w: %v", ErrUsage, err), env)
	}

	cfg, err := loadConfig(flags.common.config, loadEnvConfig(env.Getenv))
	if err != nil {
		return reportError(err, env)
	}

	result := runDoctor(ctx, cfg, env, flags.common)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, env *Environment, f commonFlags) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkMail(result, env)
	checkDNSRecords(ctx, result, cfg, env, f)
	checkBrowser(result, env)
	checkEnvironment(result, env)
	checkPaths(result, cfg)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkMail verifies the API credential is present.
func checkMail(result *doctorResult, env *Environment) {
	result.Mail.APIKey = env.Getenv(mailer.APIKeyEnv) != ""
	if !result.Mail.APIKey {
		result.Errors = append(result.Errors, mailer.APIKeyEnv+" not set; sending is unavailable")
	}
}

// checkDNSRecords runs the sender-domain checks. Failures are errors,
// lookups that could not complete are warnings.
func checkDNSRecords(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment, f commonFlags) {
	if len(cfg.DNS.Checks) == 0 {
		return
	}

	report, err := runDNSChecks(ctx, cfg, env, newLogger(io.Discard, f))
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("DNS checks interrupted: %v", err))
	}

	for _, r := range report.Results {
		result.DNS = append(result.DNS, dnsInfo{
			Label:  r.Check.Label,
			Name:   r.Check.Name,
			Status: r.Status.String(),
			Detail: r.Detail,
		})
		switch r.Status {
		case dnsauth.Fail:
			result.Errors = append(result.Errors, fmt.Sprintf("%s record %s: %s", r.Check.Label, r.Check.Name, r.Detail))
		case dnsauth.Unknown:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s record %s: %s", r.Check.Label, r.Check.Name, r.Detail))
		}
	}
}

// checkBrowser detects a browser for the pre-send preview.
func checkBrowser(result *doctorResult, env *Environment) {
	path, found := env.LookPathBrowser()
	if !found {
		result.Warnings = append(result.Warnings,
			"No Chrome/Chromium found; 'send' opens the preview with the system default browser")
		return
	}
	result.Browser = browserInfo{Found: true, Path: path}
}

// checkEnvironment detects CI, headless sessions and wake lock support.
func checkEnvironment(result *doctorResult, env *Environment) {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
	result.Env.Headless = hints.IsHeadless()
	result.Env.WakeLock = env.HasWakeLock()

	if result.Env.Headless {
		result.Warnings = append(result.Warnings,
			"Headless session detected; use 'send --no-confirm' to skip the browser preview")
	}
}

// checkPaths verifies the output directory is writable and the subscriber
// list exists.
func checkPaths(result *doctorResult, cfg *config.Config) {
	result.Paths.OutputDir = cfg.Paths.OutputDir
	result.Paths.Subscribers = cfg.Paths.Subscribers

	probe := filepath.Join(cfg.Paths.OutputDir, ".newsletter-doctor")
	if err := fileutil.WriteFileAtomic(probe, []byte("test")); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %s%s", cfg.Paths.OutputDir, hints.ForOutputDirectory()))
	} else {
		_ = os.Remove(probe)
		result.Paths.OutputWritable = true
	}

	result.Paths.SubscribersExists = fileutil.FileExists(cfg.Paths.Subscribers)
	if !result.Paths.SubscribersExists {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Subscribers file not found: %s", cfg.Paths.Subscribers))
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "newsletter doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Mail")
	if r.Mail.APIKey {
		fmt.Fprintf(w, "  [OK] %s: set\n", mailer.APIKeyEnv)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s: not set\n", mailer.APIKeyEnv)
	}
	fmt.Fprintln(w)

	if len(r.DNS) > 0 {
		fmt.Fprintln(w, "Email authentication")
		for _, d := range r.DNS {
			switch d.Status {
			case dnsauth.Pass.String():
				fmt.Fprintf(w, "  [OK] %s: %s\n", d.Label, d.Name)
			case dnsauth.Fail.String():
				fmt.Fprintf(w, "  [ERROR] %s: %s (%s)\n", d.Label, d.Name, d.Detail)
			default:
				fmt.Fprintf(w, "  [WARN] %s: %s (%s)\n", d.Label, d.Name, d.Detail)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Browser.Found {
		fmt.Fprintf(w, "  [OK] Browser: %s\n", r.Browser.Path)
	}
	if r.Env.WakeLock {
		fmt.Fprintln(w, "  [OK] Wake lock: caffeinate")
	} else {
		fmt.Fprintln(w, "  [OK] Wake lock: unavailable (plain timer)")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Paths")
	if r.Paths.OutputWritable {
		fmt.Fprintf(w, "  [OK] Output directory: %s\n", r.Paths.OutputDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Output directory: %s not writable\n", r.Paths.OutputDir)
	}
	if r.Paths.SubscribersExists {
		fmt.Fprintf(w, "  [OK] Subscribers: %s\n", r.Paths.Subscribers)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to send")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
