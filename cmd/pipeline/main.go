package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"creatorpulse/internal/delivery"
	"creatorpulse/internal/dispatch"
	"creatorpulse/internal/ideas"
	"creatorpulse/shared/ai"
	"creatorpulse/shared/config"
	"creatorpulse/shared/email"
	"creatorpulse/shared/httpapi"
	"creatorpulse/shared/logging"
	"creatorpulse/shared/store"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	aiClient, err := ai.NewClient(&cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create AI client")
	}

	queue := dispatch.NewQueue(cfg.Dispatch.QueueBuffer, log)
	defer queue.Close()

	dispatcher := dispatch.New(st, queue, log)
	worker := delivery.NewWorker(st,
		ideas.NewSynthesizer(aiClient, log),
		ideas.SubstringFilter{},
		email.NewSMTPSender(&cfg.Email),
		queue,
		func(userID string) string {
			return httpapi.UnsubscribeURL(cfg.Server.BaseURL, userID, cfg.Server.UnsubscribeSecret)
		},
		log)

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		if err := runOnce(ctx, dispatcher, worker, queue, log); err != nil {
			log.Fatal().Err(err).Msg("single run failed")
		}
		return
	}

	server := httpapi.NewServer(&cfg.Server, st, dispatcher, worker, log)

	errCh := make(chan error, 3)
	go func() { errCh <- worker.Run(ctx, cfg.Dispatch.Workers) }()
	go func() { errCh <- server.Start(ctx) }()
	go func() { errCh <- dispatcher.Start(ctx, cfg.Dispatch.TickSchedule) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("component failed")
		}
	}
}

// runOnce performs a single dispatch tick and processes the resulting jobs
// synchronously. The subscription is opened before the tick so no job is
// published without a consumer.
func runOnce(ctx context.Context, d *dispatch.Dispatcher, w *delivery.Worker, q *dispatch.Queue, log zerolog.Logger) error {
	jobs, err := q.Jobs(ctx)
	if err != nil {
		return err
	}

	enqueued, err := d.Tick(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("enqueued", enqueued).Msg("tick complete")

	for i := 0; i < enqueued; i++ {
		msg := <-jobs
		job, err := dispatch.DecodeJob(msg)
		if err != nil {
			log.Error().Err(err).Msg("dropping malformed job")
			msg.Ack()
			continue
		}
		result, err := w.Process(ctx, job)
		if err != nil {
			log.Error().Err(err).Str("user_id", job.UserID).Str("reason", result.Reason).Msg("delivery failed")
		} else {
			log.Info().Str("user_id", job.UserID).Str("state", string(result.State)).Msg("delivery complete")
		}
		msg.Ack()
	}
	return nil
}
