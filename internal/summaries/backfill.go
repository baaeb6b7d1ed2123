// One-shot backfill of generated summaries for audiobooks which do not have
// one yet. Runs as an alternate process mode rather than a long-lived
// service; pacing between API calls is enforced with a rate limiter to stay
// inside upstream quotas.
package summaries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/pkg/logger"
	"golang.org/x/time/rate"
)

var log = logger.Get("Summaries")

type (
	DataStore interface {
		ListAudiobooksMissingSummary() ([]*catalog.Audiobook, error)
		SetAudiobookSummary(id uuid.UUID, summary string) error
	}

	Summarizer interface {
		Summarize(ctx context.Context, title string, description string) (string, error)
	}

	// BackfillResult tallies one backfill run.
	BackfillResult struct {
		Total     int
		Succeeded int
		Skipped   int
		Failed    int
	}

	backfillRunner struct {
		dataStore  DataStore
		summarizer Summarizer
		limiter    *rate.Limiter
	}
)

const progressLogInterval = 10

// NewRunner creates a backfill runner which spaces summary generations at
// least interCallDelay apart.
func NewRunner(dataStore DataStore, summarizer Summarizer, interCallDelay time.Duration) *backfillRunner {
	if interCallDelay <= 0 {
		interCallDelay = 2 * time.Second
	}

	return &backfillRunner{
		dataStore:  dataStore,
		summarizer: summarizer,
		limiter:    rate.NewLimiter(rate.Every(interCallDelay), 1),
	}
}

// Run generates summaries for every audiobook that is missing one. A
// failed generation does not abort the run; it is counted, and the pacing
// is backed off by consuming an extra limiter token before the next item.
func (runner *backfillRunner) Run(ctx context.Context) (*BackfillResult, error) {
	audiobooks, err := runner.dataStore.ListAudiobooksMissingSummary()
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Total: len(audiobooks)}
	log.Infof("Found %d audiobooks without a summary\n", result.Total)
	if result.Total == 0 {
		return result, nil
	}

	for i, audiobook := range audiobooks {
		if err := runner.limiter.Wait(ctx); err != nil {
			return result, err
		}

		log.Infof("[%d/%d] Summarizing '%s'\n", i+1, result.Total, audiobook.Title)

		description := ""
		if audiobook.Description != nil {
			description = *audiobook.Description
		}

		summary, err := runner.summarizer.Summarize(ctx, audiobook.Title, description)
		switch {
		case err != nil:
			log.Errorf("Summary generation for audiobook %s failed: %s\n", audiobook.ID, err)
			result.Failed++

			// Back off after a failure by burning an extra token, which
			// doubles the gap before the next attempt.
			if waitErr := runner.limiter.Wait(ctx); waitErr != nil {
				return result, waitErr
			}
		case summary == "":
			log.Debugf("Audiobook %s has no description to summarize, skipping\n", audiobook.ID)
			result.Skipped++
		default:
			if err := runner.dataStore.SetAudiobookSummary(audiobook.ID, summary); err != nil {
				log.Errorf("Failed to save summary for audiobook %s: %s\n", audiobook.ID, err)
				result.Failed++
				break
			}

			result.Succeeded++
		}

		if (i+1)%progressLogInterval == 0 {
			log.Infof("Progress: %d/%d | succeeded: %d | skipped: %d | failed: %d\n",
				i+1, result.Total, result.Succeeded, result.Skipped, result.Failed)
		}
	}

	log.Infof("Backfill complete: %d succeeded, %d skipped, %d failed (of %d)\n",
		result.Succeeded, result.Skipped, result.Failed, result.Total)
	return result, nil
}
