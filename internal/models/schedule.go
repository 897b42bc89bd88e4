package models

import (
	"strings"
	"time"
)

// Cadence is the user-chosen delivery period.
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
)

// MinDaysBetween is the minimum number of whole days that must elapse between
// two sends for this cadence. Each period gets one day of grace below its
// nominal length to tolerate tick jitter and clock drift.
func (c Cadence) MinDaysBetween() int {
	switch c {
	case CadenceBiweekly:
		return 13
	case CadenceMonthly:
		return 27
	default:
		return 6
	}
}

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceWeekly, CadenceBiweekly, CadenceMonthly:
		return true
	}
	return false
}

const (
	// MaxPreferenceEntries caps each preference list.
	MaxPreferenceEntries = 20
	// MaxPreferenceLength caps each preference entry, in bytes.
	MaxPreferenceLength = 80
)

// Preferences are the user's declared content constraints. Lists are
// normalized (trimmed, deduplicated, capped) before storage.
type Preferences struct {
	FocusAreas       []string `json:"focus_areas,omitempty"`
	AvoidTopics      []string `json:"avoid_topics,omitempty"`
	PreferredFormats []string `json:"preferred_formats,omitempty"`
}

// Normalize trims entries, drops blanks and case-insensitive duplicates,
// truncates oversized entries and caps each list.
func (p *Preferences) Normalize() {
	p.FocusAreas = normalizeList(p.FocusAreas)
	p.AvoidTopics = normalizeList(p.AvoidTopics)
	p.PreferredFormats = normalizeList(p.PreferredFormats)
}

// Empty reports whether no constraint is declared at all.
func (p *Preferences) Empty() bool {
	return len(p.FocusAreas) == 0 && len(p.AvoidTopics) == 0 && len(p.PreferredFormats) == 0
}

func normalizeList(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) > MaxPreferenceLength {
			s = s[:MaxPreferenceLength]
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == MaxPreferenceEntries {
			break
		}
	}
	return out
}

// UserScheduleConfig is one user's digest schedule and preferences. Mutated
// only through validated settings updates; read by the dispatcher and the
// idea synthesizer.
type UserScheduleConfig struct {
	UserID       string      `json:"user_id" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	EmailEnabled bool        `json:"email_enabled"`
	Cadence      Cadence     `json:"cadence" validate:"required,oneof=weekly biweekly monthly"`
	Weekday      int         `json:"weekday" validate:"min=0,max=6"`
	TimeOfDay    string      `json:"time_of_day" validate:"required,datetime=15:04"`
	Timezone     string      `json:"timezone" validate:"required,timezone"`
	IdeaCount    int         `json:"idea_count" validate:"required,oneof=3 5 10"`
	Preferences  Preferences `json:"preferences"`
}

// DeliveryLogEntry is one append-only record of a delivery attempt outcome.
type DeliveryLogEntry struct {
	UserID  string        `json:"user_id"`
	BatchID string        `json:"batch_id,omitempty"`
	TickID  string        `json:"tick_id,omitempty"`
	State   DeliveryState `json:"state"`
	Reason  string        `json:"reason,omitempty"`
	At      time.Time     `json:"at"`
}

// WeekdayName maps a 0-6 weekday (Sunday = 0) to its English name, matching
// time.Weekday.
func WeekdayName(d int) string {
	return time.Weekday(d % 7).String()
}
