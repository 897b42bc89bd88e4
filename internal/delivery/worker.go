// Package delivery consumes digest jobs and walks each through generation,
// filtering, rendering and sending, recording the outcome on the batch and
// in the delivery log.
package delivery

import (
	"context"
	"sort"
	"sync"
	"time"

	"creatorpulse/internal/digest"
	"creatorpulse/internal/dispatch"
	"creatorpulse/internal/ideas"
	"creatorpulse/internal/insights"
	"creatorpulse/internal/models"
	"creatorpulse/internal/schedule"
	"creatorpulse/shared/email"
	"creatorpulse/shared/store"

	"github.com/rs/zerolog"
)

// recentVideoLimit caps how many recent titles are fed to the synthesizer as
// evidence.
const recentVideoLimit = 10

// Stage names, logged as the job advances.
const (
	stageQueued     = "queued"
	stageGenerating = "generating"
	stageFiltering  = "filtering"
	stageRendering  = "rendering"
	stageSending    = "sending"
)

// Result is the outcome of one processed job. Skipped results are clean
// no-ops (the cadence recheck said another job already sent this cycle).
type Result struct {
	State   models.DeliveryState
	Reason  string
	BatchID string
	Skipped bool
}

type Worker struct {
	store       store.Store
	synthesizer *ideas.Synthesizer
	filter      ideas.Filter
	sender      email.Sender
	queue       *dispatch.Queue
	log         zerolog.Logger

	// unsubscribeURL builds the signed opt-out link for a user.
	unsubscribeURL func(userID string) string

	now func() time.Time
}

func NewWorker(
	st store.Store,
	synthesizer *ideas.Synthesizer,
	filter ideas.Filter,
	sender email.Sender,
	queue *dispatch.Queue,
	unsubscribeURL func(userID string) string,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		store:          st,
		synthesizer:    synthesizer,
		filter:         filter,
		sender:         sender,
		queue:          queue,
		unsubscribeURL: unsubscribeURL,
		log:            log.With().Str("component", "delivery").Logger(),
		now:            time.Now,
	}
}

// Run consumes the job queue with n concurrent workers until the context is
// cancelled. Every error is absorbed at the job boundary; nothing a single
// job does can take down the pool.
func (w *Worker) Run(ctx context.Context, n int) error {
	msgs, err := w.queue.Jobs(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range msgs {
				job, err := dispatch.DecodeJob(msg)
				if err != nil {
					w.log.Error().Err(err).Msg("dropping undecodable job")
					msg.Ack()
					continue
				}

				result, err := w.Process(ctx, job)
				log := w.log.With().
					Str("user_id", job.UserID).
					Str("tick_id", job.TickID).
					Logger()
				switch {
				case err != nil:
					log.Error().Err(err).Str("reason", result.Reason).Msg("job failed")
				case result.Skipped:
					log.Info().Msg("job skipped, already sent this cycle")
				default:
					log.Info().Str("batch_id", result.BatchID).Msg("digest sent")
				}
				msg.Ack()
			}
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// Process executes one job end to end. Stages are strictly sequential; each
// depends on the previous stage's output.
//
// The cadence recheck on entry is the idempotency boundary: duplicate ticks
// or multiple dispatcher instances may enqueue the same user twice, and the
// second job must find lastSentAt already advanced and exit as a no-op. This
// recheck is required behavior, not an optimization.
func (w *Worker) Process(ctx context.Context, job *dispatch.Job) (*Result, error) {
	now := w.now().UTC()
	log := w.log.With().Str("user_id", job.UserID).Logger()
	log.Debug().Str("stage", stageQueued).Msg("job picked up")

	cfg, err := w.store.GetScheduleConfig(ctx, job.UserID)
	if err != nil {
		return w.fail(ctx, job, "", ReasonGenerationError, err)
	}

	if !job.OnDemand {
		lastSent, err := w.store.LastSentAt(ctx, job.UserID)
		if err != nil {
			return w.fail(ctx, job, "", ReasonGenerationError, err)
		}
		if !schedule.CanSendAgain(lastSent, cfg.Cadence, now) {
			return &Result{Skipped: true, Reason: ReasonNotDue}, nil
		}
	}

	// Generating: rebuild insights from the full corpus. The snapshot is
	// upserted as soon as it exists; a failure in any later stage leaves it
	// in place, which is safe because it is idempotently overwritable.
	log.Debug().Str("stage", stageGenerating).Msg("regenerating insights")

	videos, err := w.store.ListVideoRecords(ctx, job.UserID)
	if err != nil {
		return w.fail(ctx, job, "", ReasonGenerationError, err)
	}
	comments, err := w.store.ListCommentRecords(ctx, job.UserID)
	if err != nil {
		return w.fail(ctx, job, "", ReasonGenerationError, err)
	}

	loc, locErr := time.LoadLocation(cfg.Timezone)
	if locErr != nil {
		loc = time.UTC
	}

	report, err := insights.Analyze(videos, comments, loc)
	if err != nil {
		return w.fail(ctx, job, "", ReasonNoVideos, err)
	}
	if err := w.store.PutSnapshot(ctx, report.Snapshot(job.UserID, now)); err != nil {
		return w.fail(ctx, job, "", ReasonGenerationError, err)
	}

	batch, err := w.synthesizer.Synthesize(ctx, &ideas.Request{
		UserID:       job.UserID,
		Report:       report,
		RecentVideos: recentVideos(videos),
		Count:        cfg.IdeaCount,
		Preferences:  cfg.Preferences,
	})
	if err != nil {
		// Nothing is persisted for a failed generation; the next eligible
		// tick starts from scratch.
		return w.fail(ctx, job, "", ReasonGenerationError, err)
	}

	log.Debug().Str("stage", stageFiltering).Str("batch_id", batch.ID).Msg("applying preferences")

	kept := w.filter.Apply(batch.Ideas, cfg.Preferences)
	if len(kept) == 0 {
		w.markFailed(ctx, batch, ReasonNoMatchingIdeas, log)
		return w.fail(ctx, job, batch.ID, ReasonNoMatchingIdeas, ideas.ErrNoMatchingIdeas)
	}

	log.Debug().Str("stage", stageRendering).Msg("rendering digest")

	d, err := digest.Render(report.Snapshot(job.UserID, now), kept, w.unsubscribeURL(job.UserID), now)
	if err != nil {
		return w.fail(ctx, job, batch.ID, ReasonRenderError, err)
	}

	if err := w.store.PutIdeaBatch(ctx, batch); err != nil {
		return w.fail(ctx, job, batch.ID, ReasonGenerationError, err)
	}

	log.Debug().Str("stage", stageSending).Msg("calling email provider")

	messageID, err := w.sender.Send(cfg.Email, d.Subject, d.HTML)
	if err != nil {
		w.markFailed(ctx, batch, ReasonDeliveryError, log)
		// lastSentAt is left untouched so the next eligible tick retries.
		return w.fail(ctx, job, batch.ID, ReasonDeliveryError, &DeliveryError{Err: err})
	}

	if err := batch.DeliveryState.Transition(models.DeliverySent); err != nil {
		return w.fail(ctx, job, batch.ID, ReasonDeliveryError, err)
	}
	batch.SentAt = &now
	if err := w.store.PutIdeaBatch(ctx, batch); err != nil {
		return w.fail(ctx, job, batch.ID, ReasonDeliveryError, err)
	}

	// The lastSentAt update is the final step of a successful send. A crash
	// between the provider accepting the message and this write is the one
	// accepted failure mode: it risks a single duplicate on the next
	// eligible tick, bounded by the cadence window.
	if err := w.store.SetLastSentAt(ctx, job.UserID, now); err != nil {
		return w.fail(ctx, job, batch.ID, ReasonDeliveryError, err)
	}

	w.appendLog(ctx, job, batch.ID, models.DeliverySent, "")
	log.Info().Str("message_id", messageID).Str("batch_id", batch.ID).Msg("delivery recorded")

	return &Result{State: models.DeliverySent, BatchID: batch.ID}, nil
}

// markFailed transitions a batch to failed and persists it.
func (w *Worker) markFailed(ctx context.Context, batch *models.IdeaBatch, reason string, log zerolog.Logger) {
	if err := batch.DeliveryState.Transition(models.DeliveryFailed); err != nil {
		log.Error().Err(err).Msg("refusing illegal batch transition")
		return
	}
	batch.FailureReason = reason
	if err := w.store.PutIdeaBatch(ctx, batch); err != nil {
		log.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to persist failed batch")
	}
}

// fail records a failed attempt in the delivery log and returns the result
// plus the underlying error for the caller to log.
func (w *Worker) fail(ctx context.Context, job *dispatch.Job, batchID, reason string, err error) (*Result, error) {
	w.appendLog(ctx, job, batchID, models.DeliveryFailed, reason)
	return &Result{State: models.DeliveryFailed, Reason: reason, BatchID: batchID}, err
}

func (w *Worker) appendLog(ctx context.Context, job *dispatch.Job, batchID string, state models.DeliveryState, reason string) {
	entry := &models.DeliveryLogEntry{
		UserID:  job.UserID,
		BatchID: batchID,
		TickID:  job.TickID,
		State:   state,
		Reason:  reason,
		At:      w.now().UTC(),
	}
	if err := w.store.AppendDeliveryLog(ctx, entry); err != nil {
		w.log.Error().Err(err).Str("user_id", job.UserID).Msg("failed to append delivery log")
	}
}

// recentVideos returns the newest videos by publish date, newest first.
func recentVideos(videos []models.VideoRecord) []models.VideoRecord {
	sorted := make([]models.VideoRecord, len(videos))
	copy(sorted, videos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	if len(sorted) > recentVideoLimit {
		sorted = sorted[:recentVideoLimit]
	}
	return sorted
}
