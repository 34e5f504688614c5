package scheduler

import (
	"iter"
	"time"

	"smartsched/internal/models"
)

// slotGranularity is the step between candidate slot start times.
const slotGranularity = 30 * time.Minute

// MeetingRequest describes a meeting to be scheduled. It is produced by an
// upstream collaborator (manual entry or email extraction) and consumed once.
type MeetingRequest struct {
	Title            string
	DurationMinutes  int
	Attendees        []string
	Description      string
	Location         string
	Organizer        string
	RequiresResponse bool
}

// TimeSlot is a candidate interval for placing a meeting, together with the
// quality score and diagnostics accumulated while evaluating it. Slots are
// created fresh per search and discarded after the response is returned.
type TimeSlot struct {
	Start     time.Time
	End       time.Time
	Score     float64
	Conflicts map[string][]*models.Event // participant -> conflicting events
	Notes     []string                   // human-readable scoring rationale
}

// generateSlots yields candidate slots for the given duration, starting from
// the day after now and covering horizonDays calendar days. Weekends are
// skipped; within each remaining day, slots start every 30 minutes inside
// working hours and are dropped if they would run past the end of the working
// day. The sequence is lazy and can be ranged over more than once; it does no
// I/O and is deterministic for a fixed now.
func generateSlots(now time.Time, horizonDays, durationMinutes int, prefs Preferences) iter.Seq[TimeSlot] {
	duration := time.Duration(durationMinutes) * time.Minute

	return func(yield func(TimeSlot) bool) {
		year, month, day := now.Date()
		base := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

		for offset := 1; offset <= horizonDays; offset++ {
			current := base.AddDate(0, 0, offset)
			if wd := current.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			dayStart := current.Add(time.Duration(prefs.WorkStartHour) * time.Hour)
			dayEnd := current.Add(time.Duration(prefs.WorkEndHour) * time.Hour)

			for start := dayStart; start.Before(dayEnd); start = start.Add(slotGranularity) {
				end := start.Add(duration)
				if end.After(dayEnd) {
					continue
				}
				if !yield(TimeSlot{Start: start, End: end}) {
					return
				}
			}
		}
	}
}
