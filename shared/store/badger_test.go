package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"creatorpulse/internal/models"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScheduleConfigRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg := &models.UserScheduleConfig{
		UserID:       "u1",
		Email:        "creator@example.com",
		EmailEnabled: true,
		Cadence:      models.CadenceWeekly,
		Weekday:      1,
		TimeOfDay:    "09:00",
		Timezone:     "America/New_York",
		IdeaCount:    5,
	}
	if err := s.PutScheduleConfig(ctx, cfg); err != nil {
		t.Fatalf("PutScheduleConfig() error = %v", err)
	}

	got, err := s.GetScheduleConfig(ctx, "u1")
	if err != nil {
		t.Fatalf("GetScheduleConfig() error = %v", err)
	}
	if got.Cadence != models.CadenceWeekly || got.Email != "creator@example.com" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := s.SetEmailEnabled(ctx, "u1", false); err != nil {
		t.Fatalf("SetEmailEnabled() error = %v", err)
	}
	got, err = s.GetScheduleConfig(ctx, "u1")
	if err != nil {
		t.Fatalf("GetScheduleConfig() error = %v", err)
	}
	if got.EmailEnabled {
		t.Error("EmailEnabled still true after SetEmailEnabled(false)")
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetScheduleConfig(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetScheduleConfig(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetSnapshot(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSnapshot(missing) error = %v, want ErrNotFound", err)
	}
}

func TestVideoRecordsAreNormalizedAndScoped(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	recs := []models.VideoRecord{
		{ID: "v1", UserID: "u1", Tags: models.AnalysisTags{Format: "  Tutorial "}},
		{ID: "v2", UserID: "u1", Tags: models.AnalysisTags{}},
		{ID: "v3", UserID: "u2", Tags: models.AnalysisTags{Format: "vlog"}},
	}
	for i := range recs {
		if err := s.PutVideoRecord(ctx, &recs[i]); err != nil {
			t.Fatalf("PutVideoRecord() error = %v", err)
		}
	}

	got, err := s.ListVideoRecords(ctx, "u1")
	if err != nil {
		t.Fatalf("ListVideoRecords() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListVideoRecords(u1) returned %d records, want 2", len(got))
	}
	if got[0].Tags.Format != "tutorial" {
		t.Errorf("Format = %q, want normalized \"tutorial\"", got[0].Tags.Format)
	}
	if got[1].Tags.Format != models.TagFallback {
		t.Errorf("blank Format = %q, want fallback", got[1].Tags.Format)
	}
}

func TestSnapshotOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := &models.InsightSnapshot{UserID: "u1", Insights: []string{"first"}}
	second := &models.InsightSnapshot{UserID: "u1", Insights: []string{"second"}}

	if err := s.PutSnapshot(ctx, first); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if err := s.PutSnapshot(ctx, second); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	got, err := s.GetSnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if len(got.Insights) != 1 || got.Insights[0] != "second" {
		t.Errorf("snapshot was not overwritten: %+v", got.Insights)
	}
}

func TestLastSentAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.LastSentAt(ctx, "u1")
	if err != nil {
		t.Fatalf("LastSentAt() error = %v", err)
	}
	if got != nil {
		t.Fatalf("LastSentAt before any send = %v, want nil", got)
	}

	at := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if err := s.SetLastSentAt(ctx, "u1", at); err != nil {
		t.Fatalf("SetLastSentAt() error = %v", err)
	}
	got, err = s.LastSentAt(ctx, "u1")
	if err != nil {
		t.Fatalf("LastSentAt() error = %v", err)
	}
	if got == nil || !got.Equal(at) {
		t.Errorf("LastSentAt = %v, want %v", got, at)
	}
}

func TestDeliveryLogAppends(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &models.DeliveryLogEntry{
			UserID: "u1",
			State:  models.DeliverySent,
			At:     base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AppendDeliveryLog(ctx, entry); err != nil {
			t.Fatalf("AppendDeliveryLog() error = %v", err)
		}
	}

	entries, err := s.ListDeliveryLog(ctx, "u1")
	if err != nil {
		t.Fatalf("ListDeliveryLog() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("ListDeliveryLog() returned %d entries, want 3", len(entries))
	}
}
