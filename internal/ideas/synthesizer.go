// Package ideas turns a pattern report into a bounded, ranked list of
// content ideas via one language-model call plus deterministic
// post-validation.
package ideas

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"creatorpulse/internal/insights"
	"creatorpulse/internal/models"
	"creatorpulse/shared/ai"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request carries everything one generation needs. The report is consumed
// directly rather than re-fetched from the store.
type Request struct {
	UserID       string
	Report       *insights.PatternReport
	RecentVideos []models.VideoRecord
	Count        int
	Preferences  models.Preferences
}

type Synthesizer struct {
	completer ai.Completer
	log       zerolog.Logger
}

func NewSynthesizer(completer ai.Completer, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		completer: completer,
		log:       log.With().Str("component", "synthesizer").Logger(),
	}
}

// Synthesize runs one completion and post-validates the result into a batch
// of exactly req.Count ideas. Post-validation always runs regardless of how
// well the model behaved: evidence outside the known types is dropped and
// ranks are reassigned sequentially. A short batch triggers one follow-up
// completion; it is never topped up with locally fabricated ideas.
func (s *Synthesizer) Synthesize(ctx context.Context, req *Request) (*models.IdeaBatch, error) {
	prompt := s.buildPrompt(req)

	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Reason: "completion call failed", Err: err}
	}

	parsed, err := parseIdeas(response)
	if err != nil {
		return nil, &GenerationError{Reason: "unparseable response", Err: err}
	}
	if len(parsed) == 0 {
		return nil, &GenerationError{Reason: "model returned an empty idea list"}
	}

	if len(parsed) < req.Count {
		s.log.Warn().
			Str("user_id", req.UserID).
			Int("got", len(parsed)).
			Int("want", req.Count).
			Msg("batch under-filled, requesting follow-up")

		more, err := s.requestMore(ctx, req, parsed)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, more...)
	}
	if len(parsed) < req.Count {
		return nil, &GenerationError{
			Reason: fmt.Sprintf("model produced %d ideas, need %d", len(parsed), req.Count),
		}
	}
	parsed = parsed[:req.Count]

	for i := range parsed {
		parsed[i].Evidence = validEvidence(parsed[i].Evidence)
		parsed[i].PredictedEngagement = clamp01(parsed[i].PredictedEngagement)
		parsed[i].Confidence = clamp01(parsed[i].Confidence)
		parsed[i].Rank = i + 1
	}

	return &models.IdeaBatch{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		CreatedAt:     time.Now().UTC(),
		Ideas:         parsed,
		DeliveryState: models.DeliveryPending,
	}, nil
}

func (s *Synthesizer) requestMore(ctx context.Context, req *Request, have []models.Idea) ([]models.Idea, error) {
	missing := req.Count - len(have)
	titles := make([]string, len(have))
	for i, idea := range have {
		titles[i] = idea.Title
	}

	prompt := s.buildPrompt(&Request{
		UserID:       req.UserID,
		Report:       req.Report,
		RecentVideos: req.RecentVideos,
		Count:        missing,
		Preferences:  req.Preferences,
	})
	prompt += fmt.Sprintf("\n\nDo NOT repeat any of these ideas already generated:\n- %s",
		strings.Join(titles, "\n- "))

	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Reason: "follow-up completion failed", Err: err}
	}
	more, err := parseIdeas(response)
	if err != nil {
		return nil, &GenerationError{Reason: "unparseable follow-up response", Err: err}
	}
	return more, nil
}

func (s *Synthesizer) buildPrompt(req *Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a content strategist for a video creator. Based on the channel
profile below, propose exactly %d new video ideas ranked from strongest to
weakest.

CHANNEL PROFILE:
%s
`, req.Count, profileSummary(req.Report))

	if len(req.RecentVideos) > 0 {
		b.WriteString("\nRECENT VIDEOS:\n")
		for i := range req.RecentVideos {
			v := &req.RecentVideos[i]
			fmt.Fprintf(&b, "- %q (%.1f%% engagement)\n", v.Title, v.EngagementRate()*100)
		}
	}

	if themes := req.Report.CommentThemes; len(themes.TopRequests) > 0 || len(themes.ConfusionAreas) > 0 {
		b.WriteString("\nAUDIENCE SIGNALS:\n")
		if len(themes.TopRequests) > 0 {
			fmt.Fprintf(&b, "- Viewers keep requesting: %s\n", strings.Join(themes.TopRequests, ", "))
		}
		if len(themes.ConfusionAreas) > 0 {
			fmt.Fprintf(&b, "- Viewers are confused about: %s\n", strings.Join(themes.ConfusionAreas, ", "))
		}
		if len(themes.PraisePatterns) > 0 {
			fmt.Fprintf(&b, "- Viewers praise: %s\n", strings.Join(themes.PraisePatterns, ", "))
		}
	}

	if !req.Preferences.Empty() {
		b.WriteString("\nCONSTRAINTS:\n")
		for _, focus := range req.Preferences.FocusAreas {
			fmt.Fprintf(&b, "- MUST relate to the topic %q\n", focus)
		}
		for _, avoid := range req.Preferences.AvoidTopics {
			fmt.Fprintf(&b, "- MUST NOT mention %q\n", avoid)
		}
		if len(req.Preferences.PreferredFormats) > 0 {
			fmt.Fprintf(&b, "- MUST use one of these formats: %s\n",
				strings.Join(req.Preferences.PreferredFormats, ", "))
		}
	}

	fmt.Fprintf(&b, `
Respond with ONLY a JSON array, no prose before or after. Each element:
{
  "title": "video title",
  "reasoning": {
    "comment_demand": "what audience demand supports this",
    "past_performance": "what past performance supports this",
    "audience_fit": "why it fits this audience",
    "trending_score": number 0-1
  },
  "evidence": [{"type": "comment" | "performance" | "trend", "text": "supporting fact"}],
  "predicted_engagement": number 0-1,
  "confidence": number 0-1,
  "suggested_structure": {"hook": "...", "format": "...", "length": "...", "tone": "..."}
}
The array must contain exactly %d elements.`, req.Count)

	return b.String()
}

func profileSummary(r *insights.PatternReport) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("- %d videos analyzed, %.1f%% average engagement",
		r.VideoCount, r.OverallAvgEngagement*100))
	if len(r.Formats) > 0 {
		lines = append(lines, "- Best formats: "+topKeys(r.Formats, 3))
	}
	if len(r.Topics) > 0 {
		lines = append(lines, "- Best topics: "+topKeys(r.Topics, 3))
	}
	if len(r.Tones) > 0 {
		lines = append(lines, "- Best tone: "+r.Tones[0].Key)
	}
	if len(r.Hooks) > 0 {
		lines = append(lines, "- Best hook style: "+r.Hooks[0].Key)
	}
	if r.HasTrend {
		lines = append(lines, "- Engagement trend: "+string(r.Trend))
	}

	return strings.Join(lines, "\n")
}

func topKeys(groups []models.GroupStat, n int) string {
	if len(groups) < n {
		n = len(groups)
	}
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = groups[i].Key
	}
	return strings.Join(keys, ", ")
}

// parseIdeas extracts the JSON array from a model response that may be
// wrapped in prose or markdown fences.
func parseIdeas(response string) ([]models.Idea, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var parsed []models.Idea
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idea array: %w", err)
	}

	// Ideas without a title are unusable regardless of what else the model
	// filled in.
	var out []models.Idea
	for _, idea := range parsed {
		if strings.TrimSpace(idea.Title) == "" {
			continue
		}
		out = append(out, idea)
	}
	return out, nil
}

func validEvidence(in []models.Evidence) []models.Evidence {
	var out []models.Evidence
	for _, ev := range in {
		if ev.Type.Valid() {
			out = append(out, ev)
		}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
