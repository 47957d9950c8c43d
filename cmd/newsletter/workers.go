package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	newsletter "github.com/alnah/go-newsletter"
)

// Generator renders one newsletter. *newsletter.Generator is safe for
// concurrent use, so one instance serves every worker.
type Generator interface {
	Generate(ctx context.Context, input newsletter.Input) (*newsletter.Result, error)
}

// Compile-time interface implementation check.
var _ Generator = (*newsletter.Generator)(nil)

// outputPlanner reports where a render would be written.
type outputPlanner interface {
	OutputPath(input newsletter.Input) (string, error)
}

// checkDistinctOutputs fails when two jobs would write the same file.
// Jobs whose destination cannot be determined are left for the render to
// report.
func checkDistinctOutputs(p outputPlanner, jobs []renderJob) error {
	seen := make(map[string]string, len(jobs))
	for _, job := range jobs {
		out, err := p.OutputPath(newsletter.Input{Path: job.InputPath, OutputPath: job.OutputPath})
		if err != nil {
			continue
		}
		key := filepath.Clean(out)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s and %s both render to %s (set a distinct date: in their frontmatter)",
				ErrUsage, prev, job.InputPath, out)
		}
		seen[key] = job.InputPath
	}
	return nil
}

// renderJob is one file to render.
type renderJob struct {
	InputPath  string
	OutputPath string // Empty = generator default
}

// renderResult holds the outcome of a single render.
type renderResult struct {
	InputPath string
	Result    *newsletter.Result
	Err       error
	Duration  time.Duration
}

// renderBatch renders jobs concurrently on at most workers goroutines.
// Results keep the order of jobs.
func renderBatch(ctx context.Context, gen Generator, jobs []renderJob, workers int) []renderResult {
	if len(jobs) == 0 {
		return nil
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]renderResult, len(jobs))
	queue := make(chan int, len(jobs))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = renderResult{InputPath: jobs[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = renderOne(ctx, gen, jobs[idx])
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

func renderOne(ctx context.Context, gen Generator, job renderJob) renderResult {
	start := time.Now()
	res, err := gen.Generate(ctx, newsletter.Input{Path: job.InputPath, OutputPath: job.OutputPath})
	return renderResult{
		InputPath: job.InputPath,
		Result:    res,
		Err:       err,
		Duration:  time.Since(start),
	}
}

// resolveWorkers determines the number of concurrent renders.
// Priority: explicit flag > GOMAXPROCS-based calculation.
func resolveWorkers(flagWorkers int) int {
	if flagWorkers > 0 {
		return flagWorkers
	}

	// Renders mostly wait on metadata requests; GOMAXPROCS is adjusted by
	// automaxprocs for containers.
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}
