package scheduler

import (
	"context"
	"sort"
	"time"

	"smartsched/internal/models"
)

// OptimizeCalendar scans the events in [startDate, startDate+windowDays) and
// returns health suggestions sorted high to low severity. Within a severity
// tier, suggestions stay in day order, then rule order (overbooked, break,
// lunch). Optimization is advisory: if the event fetch fails the pass aborts,
// logs the error and returns nil rather than surfacing a failure.
func (s *Scheduler) OptimizeCalendar(ctx context.Context, startDate time.Time, windowDays int) []Suggestion {
	endDate := startDate.AddDate(0, 0, windowDays)

	events, err := s.provider.ListEvents(ctx, startDate, endDate)
	if err != nil {
		// Gap and count rules need the complete event set, so a partial
		// pass would produce misleading findings.
		s.logger.Error("Failed to fetch events for calendar optimization", "error", err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}

	byDay := groupByDay(events)
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var suggestions []Suggestion
	for _, day := range days {
		suggestions = append(suggestions, s.analyzeDay(day, byDay[day])...)
	}

	// Stable, so the per-day emission order survives as the secondary
	// order inside each tier.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Severity() < suggestions[j].Severity()
	})

	s.logger.Info("Calendar optimization finished",
		"events", len(events), "suggestions", len(suggestions))
	return suggestions
}

// analyzeDay applies the three health rules to one day's events, which must
// already be sorted by start time.
func (s *Scheduler) analyzeDay(day time.Time, events []*models.Event) []Suggestion {
	var out []Suggestion

	if len(events) > s.prefs.MaxMeetingsPerDay {
		out = append(out, OverbookedDay{
			Day:          day,
			MeetingCount: len(events),
			IDs:          eventIDs(events),
		})
	}

	for i := 0; i < len(events)-1; i++ {
		current, next := events[i], events[i+1]
		gap := next.StartTime.Sub(current.EndTime)
		if int(gap.Minutes()) < s.prefs.MinBufferMinutes {
			out = append(out, InsufficientBreak{
				Day:           day,
				FirstEventID:  current.ID,
				SecondEventID: next.ID,
				GapMinutes:    int(gap.Minutes()),
			})
		}
	}

	lunchStart := day.Add(time.Duration(s.prefs.LunchWindow.Start) * time.Hour)
	lunchEnd := day.Add(time.Duration(s.prefs.LunchWindow.End) * time.Hour)
	var lunchIDs []string
	for _, event := range events {
		if event.Overlaps(lunchStart, lunchEnd) {
			lunchIDs = append(lunchIDs, event.ID)
		}
	}
	// One aggregated suggestion per day, however many events intrude.
	if len(lunchIDs) > 0 {
		out = append(out, LunchConflict{Day: day, IDs: lunchIDs})
	}

	return out
}

// groupByDay buckets events by the local calendar day they start on and
// sorts each bucket by start time.
func groupByDay(events []*models.Event) map[time.Time][]*models.Event {
	byDay := make(map[time.Time][]*models.Event)
	for _, event := range events {
		year, month, day := event.StartTime.Date()
		key := time.Date(year, month, day, 0, 0, 0, 0, event.StartTime.Location())
		byDay[key] = append(byDay[key], event)
	}
	for _, dayEvents := range byDay {
		sort.Slice(dayEvents, func(i, j int) bool {
			return dayEvents[i].StartTime.Before(dayEvents[j].StartTime)
		})
	}
	return byDay
}

func eventIDs(events []*models.Event) []string {
	ids := make([]string, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}
	return ids
}
