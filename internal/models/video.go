package models

import (
	"strings"
	"time"
)

// TagFallback is the bucket used when an AI-derived tag is missing or blank.
// Keeping it a single well-known value keeps pattern grouping deterministic.
const TagFallback = "general"

// AnalysisTags is the AI-derived classification attached to a video during
// ingestion. Values are free text authored by the language model, so they are
// normalized at the ingestion boundary before anything groups on them.
type AnalysisTags struct {
	Topic          string   `json:"topic"`
	Subtopics      []string `json:"subtopics,omitempty"`
	Tone           string   `json:"tone"`
	HookType       string   `json:"hook_type"`
	Complexity     string   `json:"complexity"`
	Format         string   `json:"format"`
	AudienceIntent string   `json:"audience_intent"`
}

// Normalize lower-cases and trims every tag and replaces blanks with the
// fallback bucket.
func (t *AnalysisTags) Normalize() {
	t.Topic = normalizeTag(t.Topic)
	t.Tone = normalizeTag(t.Tone)
	t.HookType = normalizeTag(t.HookType)
	t.Complexity = normalizeTag(t.Complexity)
	t.Format = normalizeTag(t.Format)
	t.AudienceIntent = normalizeTag(t.AudienceIntent)
	for i, s := range t.Subtopics {
		t.Subtopics[i] = normalizeTag(s)
	}
}

func normalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TagFallback
	}
	return s
}

// VideoRecord is one published video with its raw counters and tags.
// Immutable once analyzed; the pipeline only reads these.
type VideoRecord struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Views       int64        `json:"views"`
	Likes       int64        `json:"likes"`
	Comments    int64        `json:"comments"`
	PublishedAt time.Time    `json:"published_at"`
	Tags        AnalysisTags `json:"tags"`
}

// EngagementRate is (likes + comments) / views, 0 when the video has no views.
func (v *VideoRecord) EngagementRate() float64 {
	if v.Views == 0 {
		return 0
	}
	return float64(v.Likes+v.Comments) / float64(v.Views)
}

// CommentTags is the AI-derived classification of a single comment.
type CommentTags struct {
	Sentiment string   `json:"sentiment"`
	Intent    string   `json:"intent"`
	Topics    []string `json:"topics,omitempty"`
}

// CommentRecord is one viewer comment on a video. Read-only to the pipeline.
type CommentRecord struct {
	ID      string      `json:"id"`
	VideoID string      `json:"video_id"`
	UserID  string      `json:"user_id"`
	Text    string      `json:"text"`
	Tags    CommentTags `json:"tags"`
}
