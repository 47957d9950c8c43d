package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-newsletter/internal/config"
	"github.com/alnah/go-newsletter/internal/hints"
)

// Sentinel errors for flag validation.
var (
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// maxWorkers caps --workers.
const maxWorkers = 32

// newLogger returns the CLI logger: text to w, Info by default,
// Debug with --verbose and Warn with --quiet.
func newLogger(w io.Writer, f commonFlags) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case f.verbose:
		logger.SetLevel(logrus.DebugLevel)
	case f.quiet:
		logger.SetLevel(logrus.WarnLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// loadConfig resolves the configuration for a command.
// Priority: --config > NEWSLETTER_CONFIG > defaults; environment overrides
// are applied on top of the loaded file.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(configSearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// configSearchPaths lists where a named config is looked up, for hints.
func configSearchPaths(name string) []string {
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, config.AppDirName, name+".yaml"))
	}
	return paths
}

// resolveTimeoutWithEnv determines the metadata fetch timeout.
// Priority: flag > env > config. Returns 0 when none is set.
func resolveTimeoutWithEnv(flagValue string, envValue, configValue time.Duration) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %q (use format like 30s, 2m)", ErrInvalidTimeout, flagValue)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidTimeout, d)
		}
		return d, nil
	}
	if envValue > 0 {
		return envValue, nil
	}
	if configValue < 0 {
		return 0, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidTimeout, configValue)
	}
	return configValue, nil
}

// validateWorkers checks --workers.
func validateWorkers(n int) error {
	if n < 0 || n > maxWorkers {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidWorkerCount, n, maxWorkers)
	}
	return nil
}
