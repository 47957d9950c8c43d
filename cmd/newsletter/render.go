package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	flag "github.com/spf13/pflag"

	newsletter "github.com/alnah/go-newsletter"
	"github.com/alnah/go-newsletter/internal/config"
	"github.com/alnah/go-newsletter/internal/fileutil"
	"github.com/alnah/go-newsletter/internal/hints"
)

// inputPattern matches newsletter sources in the input directory.
const inputPattern = "newsletter-*.md"

// ErrNoInput indicates no Markdown source could be located.
var ErrNoInput = errors.New("no input specified")

// runRenderCmd parses flags and renders the requested newsletters.
func runRenderCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)
	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	timeout, err := resolveTimeoutWithEnv(flags.timeout, envCfg.Timeout, cfg.Fetch.Timeout)
	if err != nil {
		return err
	}
	if flags.templateDir != "" {
		cfg.Paths.TemplateDir = flags.templateDir
	}

	inputs, err := resolveInputs(positional, cfg.Paths.InputDir)
	if err != nil {
		return err
	}
	if flags.output != "" && len(inputs) > 1 {
		return fmt.Errorf("%w: --output needs a single input, got %d", ErrUsage, len(inputs))
	}
	if len(positional) == 0 && !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Using: %s\n", inputs[0])
	}

	logger := newLogger(env.Stderr, flags.common)
	opts := generatorOptions(cfg, flags, timeout)
	opts = append(opts, newsletter.WithLogger(logger), newsletter.WithNow(env.Now))
	gen, err := newsletter.NewGenerator(opts...)
	if err != nil {
		return err
	}

	jobs := make([]renderJob, len(inputs))
	for i, in := range inputs {
		jobs[i] = renderJob{InputPath: in, OutputPath: flags.output}
	}
	if len(jobs) > 1 {
		if err := checkDistinctOutputs(gen, jobs); err != nil {
			return err
		}
	}

	results := renderBatch(ctx, gen, jobs, resolveWorkers(flags.workers))
	return reportRenders(results, flags.common, env)
}

// generatorOptions maps configuration onto generator options.
func generatorOptions(cfg *config.Config, flags *renderFlags, timeout time.Duration) []newsletter.Option {
	opts := []newsletter.Option{
		newsletter.WithSite(newsletter.SiteFromConfig(cfg.Site)),
		newsletter.WithCDN(newsletter.CDN{
			PathPrefix: cfg.CDN.PathPrefix,
			Width:      cfg.CDN.Width,
			Quality:    cfg.CDN.Quality,
			Format:     cfg.CDN.Format,
		}),
		newsletter.WithCacheDir(cfg.Paths.CacheDir),
		newsletter.WithRefresh(flags.refresh),
		newsletter.WithUserAgent(cfg.Fetch.UserAgent),
		newsletter.WithOutputDir(cfg.Paths.OutputDir),
		newsletter.WithTemplateDir(cfg.Paths.TemplateDir),
	}
	if timeout > 0 {
		opts = append(opts, newsletter.WithFetchTimeout(timeout))
	}
	return opts
}

// resolveInputs turns positional arguments into Markdown files.
// Without arguments the newest newsletter-*.md in inputDir is used. A
// directory expands to its .md files. A relative name that does not exist
// is retried inside inputDir.
func resolveInputs(args []string, inputDir string) ([]string, error) {
	if len(args) == 0 {
		if inputDir == "" {
			return nil, fmt.Errorf("%w%s", ErrNoInput, hints.ForNoInput(""))
		}
		latest, err := fileutil.LatestMatch(inputDir, inputPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: no %s files in %s%s", ErrNoInput, inputPattern, inputDir, hints.ForNoInput(inputDir))
		}
		return []string{latest}, nil
	}

	var files []string
	for _, arg := range args {
		found, err := resolveInput(arg, inputDir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func resolveInput(arg, inputDir string) ([]string, error) {
	candidates := []string{arg}
	if inputDir != "" && !filepath.IsAbs(arg) {
		candidates = append(candidates, filepath.Join(inputDir, arg))
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			return []string{path}, nil
		}
		matches, err := filepath.Glob(filepath.Join(path, "*.md"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no .md files in %s", ErrNoInput, path)
		}
		sort.Strings(matches)
		return matches, nil
	}
	return nil, fmt.Errorf("%w: input file not found: %s%s", ErrNoInput, arg, hints.ForNoInput(inputDir))
}

// reportRenders prints one line per render and returns an error when any
// failed. A single failure is returned as is so its exit code survives.
func reportRenders(results []renderResult, f commonFlags, env *Environment) error {
	var failed []renderResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			}
			continue
		}
		if f.quiet {
			continue
		}
		fmt.Fprintf(env.Stdout, "Newsletter generated: %s\n", r.Result.OutputPath)
		fmt.Fprintf(env.Stdout, "  Date: %s | Title: %s | Ref: %s\n", r.Result.DateDisplay, r.Result.Title, r.Result.Ref)
		fmt.Fprintf(env.Stdout, "  %d preview cards, %d reading items", r.Result.Cards, r.Result.ReadingItems)
		if f.verbose {
			fmt.Fprintf(env.Stdout, " (%s)", r.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(env.Stdout)
	}

	switch len(failed) {
	case 0:
		if !f.quiet {
			fmt.Fprintln(env.Stdout, "Open in a browser to preview, then run 'newsletter send'.")
		}
		return nil
	case 1:
		if len(results) == 1 {
			return failed[0].Err
		}
		fallthrough
	default:
		return fmt.Errorf("%d of %d render(s) failed: %w", len(failed), len(results), failed[0].Err)
	}
}
