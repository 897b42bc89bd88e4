// Package store is the document store used by the pipeline. All writes are
// single-document upserts keyed per user, so no cross-user locking or
// multi-document transactions are needed anywhere above it.
package store

import (
	"context"
	"errors"
	"time"

	"creatorpulse/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

type Store interface {
	// Schedule configs.
	PutScheduleConfig(ctx context.Context, cfg *models.UserScheduleConfig) error
	GetScheduleConfig(ctx context.Context, userID string) (*models.UserScheduleConfig, error)
	ListScheduleConfigs(ctx context.Context) ([]models.UserScheduleConfig, error)
	SetEmailEnabled(ctx context.Context, userID string, enabled bool) error

	// Corpus, written during ingestion and read-only here.
	PutVideoRecord(ctx context.Context, rec *models.VideoRecord) error
	ListVideoRecords(ctx context.Context, userID string) ([]models.VideoRecord, error)
	PutCommentRecord(ctx context.Context, rec *models.CommentRecord) error
	ListCommentRecords(ctx context.Context, userID string) ([]models.CommentRecord, error)

	// The single live snapshot per user; Put overwrites.
	PutSnapshot(ctx context.Context, snap *models.InsightSnapshot) error
	GetSnapshot(ctx context.Context, userID string) (*models.InsightSnapshot, error)

	// Idea batches.
	PutIdeaBatch(ctx context.Context, batch *models.IdeaBatch) error
	GetIdeaBatch(ctx context.Context, id string) (*models.IdeaBatch, error)

	// Delivery bookkeeping. LastSentAt returns nil when the user has never
	// been sent a digest.
	LastSentAt(ctx context.Context, userID string) (*time.Time, error)
	SetLastSentAt(ctx context.Context, userID string, at time.Time) error
	AppendDeliveryLog(ctx context.Context, entry *models.DeliveryLogEntry) error
	ListDeliveryLog(ctx context.Context, userID string) ([]models.DeliveryLogEntry, error)

	Close() error
}
