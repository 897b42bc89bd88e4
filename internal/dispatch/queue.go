package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

const jobsTopic = "delivery.jobs"

// Job is one unit of digest work: generate and deliver for a single user.
// Keyed by (user, tick) so duplicate enqueues are observable in logs.
type Job struct {
	UserID   string `json:"user_id"`
	TickID   string `json:"tick_id"`
	OnDemand bool   `json:"on_demand,omitempty"`
}

// Queue decouples the tick loop from the delivery workers. A slow worker
// never blocks the next tick.
type Queue struct {
	pubSub *gochannel.GoChannel
}

func NewQueue(buffer int, log zerolog.Logger) *Queue {
	return &Queue{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(buffer),
		}, watermillLogger{log: log.With().Str("component", "queue").Logger()}),
	}
}

// Enqueue publishes one job.
func (q *Queue) Enqueue(job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.pubSub.Publish(jobsTopic, message.NewMessage(watermill.NewUUID(), payload))
}

// Jobs returns the consumption channel. All workers share one subscription
// so each job is processed once.
func (q *Queue) Jobs(ctx context.Context) (<-chan *message.Message, error) {
	return q.pubSub.Subscribe(ctx, jobsTopic)
}

func (q *Queue) Close() error {
	return q.pubSub.Close()
}

// DecodeJob unmarshals a queue message back into a Job.
func DecodeJob(msg *message.Message) (*Job, error) {
	var job Job
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", msg.UUID, err)
	}
	return &job, nil
}

// watermillLogger adapts zerolog to watermill's logging interface.
type watermillLogger struct {
	log zerolog.Logger
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.log.Error().Err(err), msg, fields)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.log.Trace(), msg, fields)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := l.log
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return watermillLogger{log: logger}
}

func (l watermillLogger) event(e *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
