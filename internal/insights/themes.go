package insights

import (
	"sort"
	"strings"

	"creatorpulse/internal/models"
)

const maxThemesPerBucket = 5

// aggregateCommentThemes buckets comment topics by what the comment was
// doing: asking for content, expressing confusion, or praising. Topics are
// ranked by frequency with a lexical tie-break so output is stable.
func aggregateCommentThemes(comments []models.CommentRecord) models.CommentThemes {
	requests := make(map[string]int)
	confusion := make(map[string]int)
	praise := make(map[string]int)

	for i := range comments {
		c := &comments[i]
		intent := strings.ToLower(c.Tags.Intent)
		sentiment := strings.ToLower(c.Tags.Sentiment)

		var target map[string]int
		switch {
		case strings.Contains(intent, "request") || strings.Contains(intent, "suggestion"):
			target = requests
		case strings.Contains(intent, "question") || strings.Contains(intent, "confusion") || sentiment == "confused":
			target = confusion
		case sentiment == "positive" || strings.Contains(intent, "praise"):
			target = praise
		default:
			continue
		}

		for _, topic := range c.Tags.Topics {
			topic = strings.ToLower(strings.TrimSpace(topic))
			if topic == "" {
				continue
			}
			target[topic]++
		}
	}

	return models.CommentThemes{
		TopRequests:    topTopics(requests),
		ConfusionAreas: topTopics(confusion),
		PraisePatterns: topTopics(praise),
	}
}

func topTopics(counts map[string]int) []string {
	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > maxThemesPerBucket {
		topics = topics[:maxThemesPerBucket]
	}
	return topics
}
