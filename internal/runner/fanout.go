// internal/runner/fanout.go
package runner

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/pkg/models"
)

// Job is one independent source in a fan-out run. Each job carries its
// own runner, and therefore its own source, auth session, pipeline and
// checkpoint; nothing is shared across jobs.
type Job struct {
	Runner *Runner
	Window *models.TimeWindow
}

// Result pairs one job's summary with its terminal error, if any.
type Result struct {
	Summary models.RunSummary
	Err     error
}

// RunAll fans out independent sources in parallel and joins with an
// all-settled barrier: one source's failure never aborts its siblings.
func RunAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			summary, err := job.Runner.Run(ctx, job.Window)
			if err != nil {
				log.Warn().
					Str("source", summary.Source).
					Err(err).
					Msg("source run ended with error")
			}
			results[i] = Result{Summary: summary, Err: err}
		}(i, job)
	}
	wg.Wait()

	return results
}
