// Package insights turns a user's video corpus into ranked, comparative
// performance patterns.
package insights

import (
	"errors"
	"sort"
	"time"

	"creatorpulse/internal/models"
)

// ErrNoVideos is returned when the engine is asked to analyze an empty
// corpus. Callers must treat this as a precondition failure, not as an empty
// result.
var ErrNoVideos = errors.New("insights: no videos to analyze")

// PatternReport is the engine's full output. It is built once per analysis
// run and never mutated afterwards; both the snapshot writer and the idea
// synthesizer consume it directly.
type PatternReport struct {
	OverallAvgEngagement float64
	VideoCount           int

	Formats []models.GroupStat
	Topics  []models.GroupStat
	Tones   []models.GroupStat
	Hooks   []models.GroupStat

	Weekdays  []models.GroupStat
	TimeSlots []models.GroupStat

	Trend    models.Trend
	HasTrend bool

	CommentThemes models.CommentThemes
	Insights      []string
}

// Time-of-day slots by local publish hour. Night wraps midnight.
const (
	slotMorning   = "morning"   // 06-12
	slotAfternoon = "afternoon" // 12-18
	slotEvening   = "evening"   // 18-22
	slotNight     = "night"     // 22-06
)

var slotWindows = map[string]string{
	slotMorning:   "06:00-12:00",
	slotAfternoon: "12:00-18:00",
	slotEvening:   "18:00-22:00",
	slotNight:     "22:00-06:00",
}

// Analyze computes the pattern report for one user's corpus. Publish times
// are bucketed on the wall clock of loc; a nil loc means UTC. Comments may be
// empty, videos may not.
func Analyze(videos []models.VideoRecord, comments []models.CommentRecord, loc *time.Location) (*PatternReport, error) {
	if len(videos) == 0 {
		return nil, ErrNoVideos
	}
	if loc == nil {
		loc = time.UTC
	}

	overall := overallAvgEngagement(videos)

	report := &PatternReport{
		OverallAvgEngagement: overall,
		VideoCount:           len(videos),
		Formats:              rankGroups(videos, overall, func(v *models.VideoRecord) string { return v.Tags.Format }),
		Topics:               rankGroups(videos, overall, func(v *models.VideoRecord) string { return v.Tags.Topic }),
		Tones:                rankGroups(videos, overall, func(v *models.VideoRecord) string { return v.Tags.Tone }),
		Hooks:                rankGroups(videos, overall, func(v *models.VideoRecord) string { return v.Tags.HookType }),
		Weekdays: rankGroups(videos, overall, func(v *models.VideoRecord) string {
			return v.PublishedAt.In(loc).Weekday().String()
		}),
		TimeSlots: rankGroups(videos, overall, func(v *models.VideoRecord) string {
			return timeSlot(v.PublishedAt.In(loc).Hour())
		}),
		CommentThemes: aggregateCommentThemes(comments),
	}

	report.Trend, report.HasTrend = engagementTrend(videos, overall)
	report.Insights = buildInsights(report)

	return report, nil
}

// Snapshot converts a report into the user's single live snapshot document.
func (r *PatternReport) Snapshot(userID string, now time.Time) *models.InsightSnapshot {
	return &models.InsightSnapshot{
		UserID:        userID,
		GeneratedAt:   now.UTC(),
		BestFormats:   r.Formats,
		BestTopics:    r.Topics,
		BestTones:     r.Tones,
		BestHooks:     r.Hooks,
		BestUpload:    r.BestUploadTime(),
		Trend:         r.Trend,
		CommentThemes: r.CommentThemes,
		Insights:      r.Insights,
	}
}

// BestUploadTime reports the globally best time slot with the independently
// best weekday alongside. The pair is two separate facts, not a claim that
// the combination itself was observed; product has not decided whether the
// headline should require co-occurrence.
func (r *PatternReport) BestUploadTime() models.UploadTimeRecommendation {
	rec := models.UploadTimeRecommendation{}
	if len(r.TimeSlots) > 0 {
		rec.Slot = r.TimeSlots[0].Key
		rec.SlotWindow = slotWindows[rec.Slot]
	}
	if len(r.Weekdays) > 0 {
		rec.BestWeekday = r.Weekdays[0].Key
	}
	return rec
}

func overallAvgEngagement(videos []models.VideoRecord) float64 {
	var sum float64
	for i := range videos {
		sum += videos[i].EngagementRate()
	}
	return sum / float64(len(videos))
}

// rankGroups buckets the corpus by the key function and ranks the buckets
// descending by average engagement, breaking ties by video count then key so
// repeated runs over the same corpus produce identical orderings.
func rankGroups(videos []models.VideoRecord, overall float64, key func(*models.VideoRecord) string) []models.GroupStat {
	buckets := make(map[string][]*models.VideoRecord)
	for i := range videos {
		k := key(&videos[i])
		if k == "" {
			k = models.TagFallback
		}
		buckets[k] = append(buckets[k], &videos[i])
	}

	stats := make([]models.GroupStat, 0, len(buckets))
	for k, group := range buckets {
		var engagementSum float64
		var totalViews int64
		exemplar := group[0]
		for _, v := range group {
			engagementSum += v.EngagementRate()
			totalViews += v.Views
			if v.EngagementRate() > exemplar.EngagementRate() ||
				(v.EngagementRate() == exemplar.EngagementRate() && v.ID < exemplar.ID) {
				exemplar = v
			}
		}
		avgEngagement := engagementSum / float64(len(group))
		comparison := 0.0
		if overall > 0 {
			comparison = avgEngagement / overall
		}
		stats = append(stats, models.GroupStat{
			Key:                 k,
			VideoCount:          len(group),
			TotalViews:          totalViews,
			AvgViews:            float64(totalViews) / float64(len(group)),
			AvgEngagement:       avgEngagement,
			ComparisonToAverage: comparison,
			ExemplarVideoID:     exemplar.ID,
			ExemplarTitle:       exemplar.Title,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].AvgEngagement != stats[j].AvgEngagement {
			return stats[i].AvgEngagement > stats[j].AvgEngagement
		}
		if stats[i].VideoCount != stats[j].VideoCount {
			return stats[i].VideoCount > stats[j].VideoCount
		}
		return stats[i].Key < stats[j].Key
	})

	return stats
}

func timeSlot(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return slotMorning
	case hour >= 12 && hour < 18:
		return slotAfternoon
	case hour >= 18 && hour < 22:
		return slotEvening
	default:
		return slotNight
	}
}

// engagementTrend compares the newest quartile of the corpus against the
// oldest. The second return value is false when quartiles are too small to
// say anything, in which case the trend is reported stable and kept out of
// the prose.
func engagementTrend(videos []models.VideoRecord, overall float64) (models.Trend, bool) {
	quartile := len(videos) / 4
	if quartile < 1 {
		return models.TrendStable, false
	}

	byDate := make([]*models.VideoRecord, len(videos))
	for i := range videos {
		byDate[i] = &videos[i]
	}
	sort.Slice(byDate, func(i, j int) bool {
		if !byDate[i].PublishedAt.Equal(byDate[j].PublishedAt) {
			return byDate[i].PublishedAt.Before(byDate[j].PublishedAt)
		}
		return byDate[i].ID < byDate[j].ID
	})

	oldMean := meanEngagement(byDate[:quartile])
	recentMean := meanEngagement(byDate[len(byDate)-quartile:])

	margin := overall * 0.10
	switch {
	case recentMean > oldMean+margin:
		return models.TrendUp, true
	case recentMean < oldMean-margin:
		return models.TrendDown, true
	default:
		return models.TrendStable, true
	}
}

func meanEngagement(videos []*models.VideoRecord) float64 {
	var sum float64
	for _, v := range videos {
		sum += v.EngagementRate()
	}
	return sum / float64(len(videos))
}
