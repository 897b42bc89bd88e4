package ideas

import (
	"strings"

	"creatorpulse/internal/models"
)

// Filter screens a generated idea list against the user's declared
// constraints. It is an interface so the matching strategy can be replaced
// (tokenized, embedding similarity) without touching the synthesizer.
type Filter interface {
	Apply(ideas []models.Idea, prefs models.Preferences) []models.Idea
}

// SubstringFilter is the default: case-insensitive substring matching over
// the idea's title and reasoning text. Coarse, but pure and predictable.
type SubstringFilter struct{}

// Apply drops ideas that mention an avoided topic, keeps only ideas touching
// at least one focus area when any are declared, and keeps only ideas whose
// suggested format matches an allowed format when any are declared. The three
// checks are independent and all must pass. Order is preserved.
func (SubstringFilter) Apply(ideas []models.Idea, prefs models.Preferences) []models.Idea {
	var out []models.Idea
	for _, idea := range ideas {
		text := searchableText(&idea)

		if containsAny(text, prefs.AvoidTopics) {
			continue
		}
		if len(prefs.FocusAreas) > 0 && !containsAny(text, prefs.FocusAreas) {
			continue
		}
		if len(prefs.PreferredFormats) > 0 &&
			!containsAny(strings.ToLower(idea.SuggestedStructure.Format), prefs.PreferredFormats) {
			continue
		}
		out = append(out, idea)
	}
	return out
}

func searchableText(idea *models.Idea) string {
	return strings.ToLower(strings.Join([]string{
		idea.Title,
		idea.Reasoning.CommentDemand,
		idea.Reasoning.PastPerformance,
		idea.Reasoning.AudienceFit,
	}, " "))
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
