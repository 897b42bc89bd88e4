package insights

import (
	"fmt"

	"creatorpulse/internal/models"
)

// minGroupSizeForProse keeps single-video groups out of the written
// insights. They still appear in the ranked tables, but one data point is
// not enough to state a claim in prose.
const minGroupSizeForProse = 2

func buildInsights(r *PatternReport) []string {
	var out []string

	if g := firstReliable(r.Formats); g != nil {
		out = append(out, fmt.Sprintf(
			"Your %q videos average %.1f%% engagement, %.1fx your channel average.",
			g.Key, g.AvgEngagement*100, g.ComparisonToAverage))
	}
	if g := firstReliable(r.Topics); g != nil {
		out = append(out, fmt.Sprintf(
			"Content about %q performs best, averaging %.1f%% engagement across %d videos.",
			g.Key, g.AvgEngagement*100, g.VideoCount))
	}
	if g := firstReliable(r.Tones); g != nil {
		out = append(out, fmt.Sprintf(
			"A %s tone resonates most with your audience (%.1fx average engagement).",
			g.Key, g.ComparisonToAverage))
	}
	if g := firstReliable(r.Hooks); g != nil {
		out = append(out, fmt.Sprintf(
			"Openings using a %s hook outperform the rest of your catalog.", g.Key))
	}
	if g := firstReliable(r.TimeSlots); g != nil {
		line := fmt.Sprintf("Videos published in the %s (%s) earn your highest engagement",
			g.Key, slotWindows[g.Key])
		if len(r.Weekdays) > 0 {
			line += fmt.Sprintf("; %s is your strongest weekday", r.Weekdays[0].Key)
		}
		out = append(out, line+".")
	}

	if r.HasTrend {
		switch r.Trend {
		case models.TrendUp:
			out = append(out, "Your recent videos are trending above your older catalog. Keep the current direction.")
		case models.TrendDown:
			out = append(out, "Your recent videos are trending below your older catalog. Consider revisiting what worked before.")
		}
	}

	return out
}

func firstReliable(groups []models.GroupStat) *models.GroupStat {
	for i := range groups {
		if groups[i].VideoCount >= minGroupSizeForProse {
			return &groups[i]
		}
	}
	return nil
}
