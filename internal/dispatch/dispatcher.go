// Package dispatch runs the periodic eligibility tick and hands due users to
// the delivery workers through a job queue. The tick itself never generates
// or sends anything; it only reads state and enqueues.
package dispatch

import (
	"context"
	"time"

	"creatorpulse/internal/schedule"
	"creatorpulse/shared/monitoring"
	"creatorpulse/shared/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Dispatcher struct {
	store     store.Store
	queue     *Queue
	tolerance time.Duration
	log       zerolog.Logger
	cron      *cron.Cron
	monitor   *monitoring.Monitor

	// now is swapped out by tests.
	now func() time.Time
}

func New(st store.Store, queue *Queue, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     st,
		queue:     queue,
		tolerance: schedule.DefaultTolerance,
		log:       log.With().Str("component", "dispatcher").Logger(),
		monitor:   monitoring.NewMonitor(),
		// Prevent overlapping ticks
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:  time.Now,
	}
}

// Start schedules the tick on the given cron expression and blocks until the
// context is cancelled.
func (d *Dispatcher) Start(ctx context.Context, tickSchedule string) error {
	_, err := d.cron.AddFunc(tickSchedule, func() {
		enqueued, err := d.Tick(ctx)
		d.monitor.RecordTick(enqueued, err)
		if err != nil {
			d.log.Error().Err(err).Msg("tick failed")
		}
	})
	if err != nil {
		return err
	}

	d.log.Info().Str("schedule", tickSchedule).Msg("dispatcher started")
	d.cron.Start()

	<-ctx.Done()
	d.log.Info().Msg("dispatcher stopping")
	d.cron.Stop()
	return ctx.Err()
}

// Monitor exposes tick health for the health endpoint.
func (d *Dispatcher) Monitor() *monitoring.Monitor {
	return d.monitor
}

// Tick evaluates every opted-in user once and enqueues at most one job per
// due user. Eligibility is schedule AND cadence; the worker re-validates the
// cadence before sending, so a duplicate enqueue here is safe.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	tickID := uuid.NewString()
	now := d.now().UTC()

	configs, err := d.store.ListScheduleConfigs(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for i := range configs {
		cfg := &configs[i]
		if !cfg.EmailEnabled {
			continue
		}
		if !schedule.IsDue(now, cfg.Timezone, cfg.Weekday, cfg.TimeOfDay, d.tolerance) {
			continue
		}

		lastSent, err := d.store.LastSentAt(ctx, cfg.UserID)
		if err != nil {
			// One broken record must not fail the whole tick.
			d.log.Error().Err(err).Str("user_id", cfg.UserID).Msg("failed to read last send time")
			continue
		}
		if !schedule.CanSendAgain(lastSent, cfg.Cadence, now) {
			continue
		}

		if err := d.queue.Enqueue(&Job{UserID: cfg.UserID, TickID: tickID}); err != nil {
			d.log.Error().Err(err).Str("user_id", cfg.UserID).Msg("failed to enqueue job")
			continue
		}
		enqueued++
	}

	d.log.Info().
		Str("tick_id", tickID).
		Int("users", len(configs)).
		Int("enqueued", enqueued).
		Msg("tick complete")

	return enqueued, nil
}
