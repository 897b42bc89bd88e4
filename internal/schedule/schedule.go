// Package schedule decides when a digest is due. The matcher is clock based
// (weekday + time-of-day in the user's timezone), the gate is day-count based
// (elapsed days since the last successful send). The two are independent and
// a send requires both.
package schedule

import (
	"fmt"
	"time"

	"creatorpulse/internal/models"
)

// DefaultTolerance is the window around the target time-of-day within which
// a tick counts as on time.
const DefaultTolerance = 5 * time.Minute

// IsDue reports whether now falls on the target weekday within tolerance of
// the target wall-clock time in the given timezone. An unknown timezone
// falls back to UTC so one bad config never fails a whole tick.
func IsDue(nowUTC time.Time, tz string, weekday int, timeOfDay string, tolerance time.Duration) bool {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	local := nowUTC.In(loc)

	if int(local.Weekday()) != weekday%7 {
		return false
	}

	var hh, mm int
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hh, &mm); err != nil {
		return false
	}

	target := hh*60 + mm
	current := local.Hour()*60 + local.Minute()

	diff := current - target
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= tolerance
}

// CanSendAgain reports whether enough days have elapsed since the last
// successful send for the given cadence. A nil lastSentAt means the user has
// never been sent a digest. The comparison is inclusive at the boundary.
func CanSendAgain(lastSentAt *time.Time, cadence models.Cadence, now time.Time) bool {
	if lastSentAt == nil {
		return true
	}
	days := now.Sub(*lastSentAt).Hours() / 24
	return days >= float64(cadence.MinDaysBetween())
}
