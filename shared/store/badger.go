package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"creatorpulse/internal/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Key prefixes. Per-user documents embed the user id in the key so listing
// one user's records is a prefix scan.
const (
	configKeyPrefix   = "config:"
	videoKeyPrefix    = "video:"
	commentKeyPrefix  = "comment:"
	snapshotKeyPrefix = "snapshot:"
	batchKeyPrefix    = "batch:"
	lastSentKeyPrefix = "lastsent:"
	logKeyPrefix      = "dlog:"
)

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) the store under dataDir.
func Open(dataDir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dataDir, err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemory opens a store that lives only for the process. Used by tests.
func OpenInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) put(key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *BadgerStore) get(key string, doc any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, doc)
		})
	})
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return nil
}

// scan decodes every value under prefix, in key order.
func scan[T any](s *BadgerStore, prefix string) ([]T, error) {
	var out []T
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var doc T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return err
			}
			out = append(out, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	return out, nil
}

func (s *BadgerStore) PutScheduleConfig(ctx context.Context, cfg *models.UserScheduleConfig) error {
	return s.put(configKeyPrefix+cfg.UserID, cfg)
}

func (s *BadgerStore) GetScheduleConfig(ctx context.Context, userID string) (*models.UserScheduleConfig, error) {
	var cfg models.UserScheduleConfig
	if err := s.get(configKeyPrefix+userID, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *BadgerStore) ListScheduleConfigs(ctx context.Context) ([]models.UserScheduleConfig, error) {
	return scan[models.UserScheduleConfig](s, configKeyPrefix)
}

func (s *BadgerStore) SetEmailEnabled(ctx context.Context, userID string, enabled bool) error {
	cfg, err := s.GetScheduleConfig(ctx, userID)
	if err != nil {
		return err
	}
	cfg.EmailEnabled = enabled
	return s.PutScheduleConfig(ctx, cfg)
}

func (s *BadgerStore) PutVideoRecord(ctx context.Context, rec *models.VideoRecord) error {
	// Tags are model-authored free text; normalize here at the ingestion
	// boundary so the pattern engine never sees unexpected values.
	rec.Tags.Normalize()
	return s.put(videoKeyPrefix+rec.UserID+":"+rec.ID, rec)
}

func (s *BadgerStore) ListVideoRecords(ctx context.Context, userID string) ([]models.VideoRecord, error) {
	return scan[models.VideoRecord](s, videoKeyPrefix+userID+":")
}

func (s *BadgerStore) PutCommentRecord(ctx context.Context, rec *models.CommentRecord) error {
	return s.put(commentKeyPrefix+rec.UserID+":"+rec.ID, rec)
}

func (s *BadgerStore) ListCommentRecords(ctx context.Context, userID string) ([]models.CommentRecord, error) {
	return scan[models.CommentRecord](s, commentKeyPrefix+userID+":")
}

func (s *BadgerStore) PutSnapshot(ctx context.Context, snap *models.InsightSnapshot) error {
	return s.put(snapshotKeyPrefix+snap.UserID, snap)
}

func (s *BadgerStore) GetSnapshot(ctx context.Context, userID string) (*models.InsightSnapshot, error) {
	var snap models.InsightSnapshot
	if err := s.get(snapshotKeyPrefix+userID, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *BadgerStore) PutIdeaBatch(ctx context.Context, batch *models.IdeaBatch) error {
	return s.put(batchKeyPrefix+batch.ID, batch)
}

func (s *BadgerStore) GetIdeaBatch(ctx context.Context, id string) (*models.IdeaBatch, error) {
	var batch models.IdeaBatch
	if err := s.get(batchKeyPrefix+id, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *BadgerStore) LastSentAt(ctx context.Context, userID string) (*time.Time, error) {
	var at time.Time
	err := s.get(lastSentKeyPrefix+userID, &at)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (s *BadgerStore) SetLastSentAt(ctx context.Context, userID string, at time.Time) error {
	return s.put(lastSentKeyPrefix+userID, at.UTC())
}

func (s *BadgerStore) AppendDeliveryLog(ctx context.Context, entry *models.DeliveryLogEntry) error {
	// Timestamp-ordered keys with a uuid suffix so two entries in the same
	// nanosecond never collide.
	key := fmt.Sprintf("%s%s:%s:%s", logKeyPrefix, entry.UserID,
		entry.At.UTC().Format(time.RFC3339Nano), uuid.NewString())
	return s.put(key, entry)
}

func (s *BadgerStore) ListDeliveryLog(ctx context.Context, userID string) ([]models.DeliveryLogEntry, error) {
	return scan[models.DeliveryLogEntry](s, logKeyPrefix+userID+":")
}
