// Package runner drives one batch: walk the source page by page, relay
// every unseen item, checkpoint after each outcome, and summarize the
// run. It is strictly sequential within a batch; fan-out exists only
// across independent sources.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/yishe-labs/relay/internal/auth"
	"github.com/yishe-labs/relay/internal/checkpoint"
	"github.com/yishe-labs/relay/internal/notify"
	"github.com/yishe-labs/relay/internal/relay"
	"github.com/yishe-labs/relay/internal/source"
	"github.com/yishe-labs/relay/pkg/models"
)

// ErrRunIncomplete marks a non-fatal page-level failure: the run ended
// early, the checkpoint holds the resume point, and the next invocation
// picks up the same page.
var ErrRunIncomplete = errors.New("run ended before source exhaustion")

// Runner orchestrates one source's batch. It is the only writer to its
// checkpoint store.
type Runner struct {
	source       source.Source
	pipeline     *relay.Pipeline
	store        *checkpoint.Store
	notifier     *notify.Notifier
	pageDelay    time.Duration
	showProgress bool
}

// Options configures a Runner.
type Options struct {
	// PageDelay is the fixed inter-page pause. It is a static courtesy
	// to the listing source, not a backoff.
	PageDelay time.Duration
	// ShowProgress renders a per-page progress bar on stderr.
	ShowProgress bool
}

func New(src source.Source, pipeline *relay.Pipeline, store *checkpoint.Store, notifier *notify.Notifier, opts Options) *Runner {
	return &Runner{
		source:       src,
		pipeline:     pipeline,
		store:        store,
		notifier:     notifier,
		pageDelay:    opts.PageDelay,
		showProgress: opts.ShowProgress,
	}
}

// Run executes the batch until the source is exhausted or a fatal
// failure stops it. On normal completion the checkpoint is cleared and
// a summary notification goes out. On auth.ErrFatalAuth the checkpoint
// stays intact and the error propagates for the CLI to turn into a
// non-zero exit. Any other page-fetch error re-persists the resume
// point and returns ErrRunIncomplete.
func (r *Runner) Run(ctx context.Context, window *models.TimeWindow) (models.RunSummary, error) {
	start := time.Now()
	summary := models.RunSummary{Source: r.source.Name()}

	if window != nil {
		log.Info().
			Str("source", r.source.Name()).
			Time("start", time.UnixMilli(window.Start)).
			Time("end", time.UnixMilli(window.End)).
			Msg("run scoped to time window")
	}

	for {
		cursor := r.store.Cursor()
		page, err := r.source.FetchPage(ctx, cursor, window)
		if err != nil {
			summary.Duration = time.Since(start)
			if errors.Is(err, auth.ErrFatalAuth) {
				r.notifier.SendFailure(ctx, r.source.Name(), "authentication expired and refresh failed", summary)
				return summary, err
			}
			// Page-level failure: pin the resume point and end the run.
			if ferr := r.store.Flush(); ferr != nil {
				log.Error().Err(ferr).Msg("could not re-persist checkpoint after page failure")
			}
			r.notifier.SendFailure(ctx, r.source.Name(), err.Error(), summary)
			return summary, fmt.Errorf("%w: page %d: %v", ErrRunIncomplete, cursor.PageNumber, err)
		}

		log.Info().
			Str("source", r.source.Name()).
			Int("page", cursor.PageNumber).
			Int("items", len(page.Items)).
			Int("total", page.Total).
			Msg("processing page")

		if err := r.processPage(ctx, cursor, page, &summary); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		if err := r.store.AdvancePage(); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("advance page: %w", err)
		}

		if r.exhausted(cursor, page) {
			break
		}

		// Fixed inter-page delay, not a backoff.
		if r.pageDelay > 0 {
			select {
			case <-time.After(r.pageDelay):
			case <-ctx.Done():
				summary.Duration = time.Since(start)
				return summary, r.stopCancelled(ctx)
			}
		}
	}

	summary.Duration = time.Since(start)

	if err := r.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("could not clear checkpoint after completion")
	}

	log.Info().
		Str("source", r.source.Name()).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("run completed")

	r.notifier.SendSummary(ctx, summary)
	return summary, nil
}

// processPage relays every item on the page that has not already
// reached a terminal outcome, recording each outcome synchronously.
// Item failures never escalate; only checkpoint persistence failures
// and run cancellation do.
func (r *Runner) processPage(ctx context.Context, cursor models.PageCursor, page *source.Page, summary *models.RunSummary) error {
	var bar *progressbar.ProgressBar
	if r.showProgress && len(page.Items) > 0 {
		bar = progressbar.NewOptions(len(page.Items),
			progressbar.OptionSetDescription(fmt.Sprintf("%s page %d", r.source.Name(), cursor.PageNumber)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	for _, item := range page.Items {
		if ctx.Err() != nil {
			return r.stopCancelled(ctx)
		}

		if bar != nil {
			bar.Add(1)
		}

		if r.store.Completed(item.SourceID) {
			log.Debug().Str("id", item.SourceID).Msg("already completed, skipping")
			continue
		}

		outcome := r.pipeline.Relay(ctx, item)
		if outcome.Status == models.OutcomeFailed && ctx.Err() != nil {
			// A failure observed after cancellation is the cancellation
			// itself, not the item. Leave the item unrecorded so the
			// next invocation retries it from the same cursor.
			return r.stopCancelled(ctx)
		}
		switch outcome.Status {
		case models.OutcomeUploaded:
			summary.Succeeded++
			log.Info().Str("id", item.SourceID).Str("name", item.DisplayName).Msg("uploaded")
		case models.OutcomeSkipped:
			summary.Skipped++
			log.Info().Str("id", item.SourceID).Str("reason", outcome.Reason).Msg("skipped")
		case models.OutcomeFailed:
			summary.Failed++
			log.Warn().
				Str("id", item.SourceID).
				Str("stage", string(outcome.Stage)).
				Str("error", outcome.Error).
				Msg("relay failed")
		}

		// A failed item still counts as processed so the run keeps
		// moving; poison items must not wedge the batch.
		if err := r.store.RecordOutcome(item.SourceID, outcome); err != nil {
			return fmt.Errorf("record outcome for %s: %w", item.SourceID, err)
		}
	}
	return nil
}

// stopCancelled pins the resume point and turns cancellation into
// ErrRunIncomplete so the run ends cleanly without touching any
// unattempted item.
func (r *Runner) stopCancelled(ctx context.Context) error {
	if ferr := r.store.Flush(); ferr != nil {
		log.Error().Err(ferr).Msg("could not persist checkpoint on cancellation")
	}
	return fmt.Errorf("%w: %v", ErrRunIncomplete, ctx.Err())
}

// exhausted reports whether the page just processed was the source's
// last. Sources without a known total end on the first empty page;
// otherwise the page count derived from the total decides. An empty
// page before the last one just advances.
func (r *Runner) exhausted(cursor models.PageCursor, page *source.Page) bool {
	if page.Total == source.TotalUnknown {
		return len(page.Items) == 0
	}
	if page.Total <= 0 {
		return true
	}
	lastPage := (page.Total + cursor.PageSize - 1) / cursor.PageSize
	return cursor.PageNumber >= lastPage
}
