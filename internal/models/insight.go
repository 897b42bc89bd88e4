package models

import "time"

// GroupStat is one ranked bucket of a pattern dimension (a format, topic,
// tone, hook, weekday or time slot).
type GroupStat struct {
	Key                 string  `json:"key"`
	VideoCount          int     `json:"video_count"`
	TotalViews          int64   `json:"total_views"`
	AvgViews            float64 `json:"avg_views"`
	AvgEngagement       float64 `json:"avg_engagement"`
	ComparisonToAverage float64 `json:"comparison_to_average"`
	ExemplarVideoID     string  `json:"exemplar_video_id"`
	ExemplarTitle       string  `json:"exemplar_title"`
}

// Trend classifies the direction of recent engagement against the oldest
// videos in the corpus.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// UploadTimeRecommendation is the headline upload-time advice. The slot is
// the globally best time-of-day bucket and the weekday the independently best
// weekday; the two are reported side by side and are not guaranteed to
// co-occur in the data.
type UploadTimeRecommendation struct {
	Slot        string `json:"slot"`
	SlotWindow  string `json:"slot_window"`
	BestWeekday string `json:"best_weekday"`
}

// CommentThemes aggregates what viewers keep asking for, what confuses them,
// and what they praise.
type CommentThemes struct {
	TopRequests    []string `json:"top_requests"`
	ConfusionAreas []string `json:"confusion_areas"`
	PraisePatterns []string `json:"praise_patterns"`
}

// InsightSnapshot is the single live analysis snapshot for one user.
// Regeneration overwrites it in place; there is never more than one per user.
type InsightSnapshot struct {
	UserID        string                   `json:"user_id"`
	GeneratedAt   time.Time                `json:"generated_at"`
	BestFormats   []GroupStat              `json:"best_formats"`
	BestTopics    []GroupStat              `json:"best_topics"`
	BestTones     []GroupStat              `json:"best_tones"`
	BestHooks     []GroupStat              `json:"best_hooks"`
	BestUpload    UploadTimeRecommendation `json:"best_upload"`
	Trend         Trend                    `json:"trend"`
	CommentThemes CommentThemes            `json:"comment_themes"`
	Insights      []string                 `json:"insights"`
}
