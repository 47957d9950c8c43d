package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-newsletter/internal/config"
)

// envPrefix marks the variables this CLI reads.
const envPrefix = "NEWSLETTER_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // NEWSLETTER_CONFIG: config file path
	InputDir   string        // NEWSLETTER_INPUT_DIR: Markdown directory
	OutputDir  string        // NEWSLETTER_OUTPUT_DIR: rendered HTML directory
	CacheDir   string        // NEWSLETTER_CACHE_DIR: OpenGraph cache directory
	Timeout    time.Duration // NEWSLETTER_TIMEOUT: metadata fetch timeout
	SendDelay  time.Duration // NEWSLETTER_SEND_DELAY: pause between sends
	delaySet   bool
}

// knownEnvVars lists valid NEWSLETTER_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"NEWSLETTER_CONFIG":     true,
	"NEWSLETTER_INPUT_DIR":  true,
	"NEWSLETTER_OUTPUT_DIR": true,
	"NEWSLETTER_CACHE_DIR":  true,
	"NEWSLETTER_TIMEOUT":    true,
	"NEWSLETTER_SEND_DELAY": true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("NEWSLETTER_CONFIG"),
		InputDir:   getenv("NEWSLETTER_INPUT_DIR"),
		OutputDir:  getenv("NEWSLETTER_OUTPUT_DIR"),
		CacheDir:   getenv("NEWSLETTER_CACHE_DIR"),
	}

	if timeout := getenv("NEWSLETTER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Accepts a duration ("600ms") or bare milliseconds ("600")
	if delay := getenv("NEWSLETTER_SEND_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			cfg.SendDelay, cfg.delaySet = d, true
		} else if ms, err := strconv.Atoi(delay); err == nil && ms >= 0 {
			cfg.SendDelay, cfg.delaySet = time.Duration(ms)*time.Millisecond, true
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized NEWSLETTER_* variables.
// Helps catch typos like NEWSLETTER_OUTPUT instead of NEWSLETTER_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file; CLI flags are applied afterwards.
// This ensures: CLI flags > env vars > config file > defaults
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.InputDir != "" {
		cfg.Paths.InputDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Paths.OutputDir = env.OutputDir
	}
	if env.CacheDir != "" {
		cfg.Paths.CacheDir = env.CacheDir
	}
	if env.Timeout > 0 {
		cfg.Fetch.Timeout = env.Timeout
	}
	if env.delaySet {
		cfg.Send.Interval = env.SendDelay
	}
}
