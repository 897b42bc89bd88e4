package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"creatorpulse/internal/insights"
	"creatorpulse/internal/models"

	"github.com/rs/zerolog"
)

type fakeCompleter struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func ideasJSON(t *testing.T, n int, prefix string) string {
	t.Helper()
	out := make([]models.Idea, n)
	for i := range out {
		out[i] = models.Idea{
			Rank:  99, // model-provided ranks must be discarded
			Title: fmt.Sprintf("%s idea %d", prefix, i+1),
			Reasoning: models.Reasoning{
				CommentDemand: "viewers asked for this",
				AudienceFit:   "matches channel profile",
			},
			Evidence: []models.Evidence{
				{Type: models.EvidenceComment, Text: "12 comments requested it"},
			},
			PredictedEngagement: 0.4,
			Confidence:          0.7,
			SuggestedStructure:  models.SuggestedStructure{Format: "tutorial"},
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return string(data)
}

func testReport() *insights.PatternReport {
	return &insights.PatternReport{
		VideoCount:           10,
		OverallAvgEngagement: 0.08,
		Formats:              []models.GroupStat{{Key: "tutorial", VideoCount: 6}},
		Topics:               []models.GroupStat{{Key: "go", VideoCount: 6}},
	}
}

func newTestSynthesizer(c *fakeCompleter) *Synthesizer {
	return NewSynthesizer(c, zerolog.Nop())
}

func TestSynthesizeExactCount(t *testing.T) {
	for _, count := range []int{3, 5, 10} {
		t.Run(fmt.Sprintf("count %d", count), func(t *testing.T) {
			fake := &fakeCompleter{responses: []string{ideasJSON(t, count, "gen")}}
			s := newTestSynthesizer(fake)

			batch, err := s.Synthesize(context.Background(), &Request{
				UserID: "u1", Report: testReport(), Count: count,
			})
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if len(batch.Ideas) != count {
				t.Fatalf("got %d ideas, want %d", len(batch.Ideas), count)
			}
			for i, idea := range batch.Ideas {
				if idea.Rank != i+1 {
					t.Errorf("Ideas[%d].Rank = %d, want %d", i, idea.Rank, i+1)
				}
			}
			if batch.DeliveryState != models.DeliveryPending {
				t.Errorf("DeliveryState = %q, want pending", batch.DeliveryState)
			}
		})
	}
}

func TestSynthesizeTruncatesOverfilledBatch(t *testing.T) {
	fake := &fakeCompleter{responses: []string{ideasJSON(t, 8, "gen")}}
	s := newTestSynthesizer(fake)

	batch, err := s.Synthesize(context.Background(), &Request{
		UserID: "u1", Report: testReport(), Count: 5,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(batch.Ideas) != 5 {
		t.Errorf("got %d ideas, want 5", len(batch.Ideas))
	}
}

func TestSynthesizeTopsUpShortBatch(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		ideasJSON(t, 3, "first"),
		ideasJSON(t, 2, "extra"),
	}}
	s := newTestSynthesizer(fake)

	batch, err := s.Synthesize(context.Background(), &Request{
		UserID: "u1", Report: testReport(), Count: 5,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(batch.Ideas) != 5 {
		t.Fatalf("got %d ideas, want 5", len(batch.Ideas))
	}
	if len(fake.prompts) != 2 {
		t.Fatalf("made %d completion calls, want 2", len(fake.prompts))
	}
	if !strings.Contains(fake.prompts[1], "first idea 1") {
		t.Error("follow-up prompt does not list already generated titles")
	}
	// Ranks stay contiguous across the two completions.
	for i, idea := range batch.Ideas {
		if idea.Rank != i+1 {
			t.Errorf("Ideas[%d].Rank = %d, want %d", i, idea.Rank, i+1)
		}
	}
}

func TestSynthesizeStillShortAfterTopUp(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		ideasJSON(t, 3, "first"),
		ideasJSON(t, 1, "extra"),
	}}
	s := newTestSynthesizer(fake)

	_, err := s.Synthesize(context.Background(), &Request{
		UserID: "u1", Report: testReport(), Count: 5,
	})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
}

func TestSynthesizeRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose only", "I cannot help with that."},
		{"empty array", "[]"},
		{"broken json", `[{"title": "x", ]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{responses: []string{tt.response}}
			s := newTestSynthesizer(fake)

			_, err := s.Synthesize(context.Background(), &Request{
				UserID: "u1", Report: testReport(), Count: 3,
			})
			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("error = %v, want *GenerationError", err)
			}
		})
	}
}

func TestSynthesizeCompletionFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("deadline exceeded")}
	s := newTestSynthesizer(fake)

	_, err := s.Synthesize(context.Background(), &Request{
		UserID: "u1", Report: testReport(), Count: 3,
	})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
}

func TestSynthesizeDropsUnknownEvidenceTypes(t *testing.T) {
	raw := `[
		{
			"title": "Test idea",
			"evidence": [
				{"type": "comment", "text": "keep"},
				{"type": "vibes", "text": "drop"},
				{"type": "trend", "text": "keep"},
				{"type": "performance", "text": "keep"}
			],
			"predicted_engagement": 1.7,
			"confidence": -0.2
		}
	]`
	fake := &fakeCompleter{responses: []string{raw}}
	s := newTestSynthesizer(fake)

	batch, err := s.Synthesize(context.Background(), &Request{
		UserID: "u1", Report: testReport(), Count: 1,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	idea := batch.Ideas[0]
	if len(idea.Evidence) != 3 {
		t.Fatalf("got %d evidence entries, want 3", len(idea.Evidence))
	}
	for _, ev := range idea.Evidence {
		if !ev.Type.Valid() {
			t.Errorf("invalid evidence type %q survived validation", ev.Type)
		}
	}
	if idea.PredictedEngagement != 1 || idea.Confidence != 0 {
		t.Errorf("scores not clamped: engagement=%v confidence=%v",
			idea.PredictedEngagement, idea.Confidence)
	}
}

func TestPromptIncludesConstraintClauses(t *testing.T) {
	fake := &fakeCompleter{responses: []string{ideasJSON(t, 3, "gen")}}
	s := newTestSynthesizer(fake)

	_, err := s.Synthesize(context.Background(), &Request{
		UserID: "u1",
		Report: testReport(),
		Count:  3,
		Preferences: models.Preferences{
			FocusAreas:       []string{"golang"},
			AvoidTopics:      []string{"politics"},
			PreferredFormats: []string{"tutorial"},
		},
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	prompt := fake.prompts[0]
	for _, want := range []string{
		`MUST relate to the topic "golang"`,
		`MUST NOT mention "politics"`,
		"MUST use one of these formats: tutorial",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing constraint clause %q", want)
		}
	}
}
