package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsched/internal/models"
)

func dayEvent(id string, day time.Time, startHour, startMin, endHour, endMin int) *models.Event {
	year, month, d := day.Date()
	return &models.Event{
		ID:        id,
		Title:     "Meeting " + id,
		StartTime: time.Date(year, month, d, startHour, startMin, 0, 0, time.UTC),
		EndTime:   time.Date(year, month, d, endHour, endMin, 0, 0, time.UTC),
	}
}

func TestOptimizeCalendar_EmptyCalendar(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, DefaultPreferences())
	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)
	assert.Empty(t, suggestions)
}

func TestOptimizeCalendar_FetchFailureAborts(t *testing.T) {
	provider := &fakeProvider{listErr: errors.New("backend unavailable")}
	s := newTestScheduler(t, provider, DefaultPreferences())

	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)
	assert.Empty(t, suggestions, "optimization is advisory and must degrade to an empty result")
}

func TestOptimizeCalendar_OverbookedDay(t *testing.T) {
	day := tuesdayAt(0, 0)
	var events []*models.Event
	// One more meeting than the cap of 8, each well separated and outside
	// lunch so no other rule fires.
	startHours := []int{7, 8, 9, 10, 14, 15, 16, 17, 18}
	for i, h := range startHours {
		events = append(events, dayEvent(fmt.Sprintf("evt-%d", i), day, h, 0, h, 30))
	}
	provider := &fakeProvider{events: events}
	s := newTestScheduler(t, provider, DefaultPreferences())

	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)
	require.Len(t, suggestions, 1)

	overbooked, ok := suggestions[0].(OverbookedDay)
	require.True(t, ok, "expected an OverbookedDay, got %T", suggestions[0])
	assert.Equal(t, SeverityHigh, overbooked.Severity())
	assert.Equal(t, 9, overbooked.MeetingCount)
	assert.Equal(t, day, overbooked.Date())
	assert.Len(t, overbooked.EventIDs(), 9)
}

func TestOptimizeCalendar_InsufficientBreak(t *testing.T) {
	day := tuesdayAt(0, 0)
	provider := &fakeProvider{events: []*models.Event{
		dayEvent("first", day, 9, 0, 10, 0),
		dayEvent("second", day, 10, 10, 11, 0), // 10 minute gap, buffer is 15
	}}
	s := newTestScheduler(t, provider, DefaultPreferences())

	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)
	require.Len(t, suggestions, 1)

	brk, ok := suggestions[0].(InsufficientBreak)
	require.True(t, ok, "expected an InsufficientBreak, got %T", suggestions[0])
	assert.Equal(t, SeverityMedium, brk.Severity())
	assert.Equal(t, []string{"first", "second"}, brk.EventIDs())
	assert.Equal(t, 10, brk.GapMinutes)
	assert.Contains(t, brk.Message(), "10 minutes")
}

func TestOptimizeCalendar_LunchConflictsAggregatePerDay(t *testing.T) {
	day := tuesdayAt(0, 0)
	provider := &fakeProvider{events: []*models.Event{
		dayEvent("lunch-1", day, 11, 30, 12, 15),
		dayEvent("lunch-2", day, 12, 20, 13, 30),
	}}
	s := newTestScheduler(t, provider, DefaultPreferences())

	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)

	var lunches []LunchConflict
	for _, sug := range suggestions {
		if lc, ok := sug.(LunchConflict); ok {
			lunches = append(lunches, lc)
		}
	}
	require.Len(t, lunches, 1, "all lunch intrusions on one day collapse into a single suggestion")
	assert.Equal(t, SeverityLow, lunches[0].Severity())
	assert.ElementsMatch(t, []string{"lunch-1", "lunch-2"}, lunches[0].EventIDs())
}

func TestOptimizeCalendar_EventTouchingLunchEdgeIsNotAConflict(t *testing.T) {
	day := tuesdayAt(0, 0)
	provider := &fakeProvider{events: []*models.Event{
		dayEvent("before", day, 11, 0, 12, 0), // ends exactly at lunch start
		dayEvent("after", day, 13, 0, 14, 0),  // starts exactly at lunch end
	}}
	s := newTestScheduler(t, provider, DefaultPreferences())

	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)
	for _, sug := range suggestions {
		_, isLunch := sug.(LunchConflict)
		assert.False(t, isLunch, "half-open lunch window must not flag adjacent events")
	}
}

func TestOptimizeCalendar_SeverityOrdering(t *testing.T) {
	tue := tuesdayAt(0, 0)
	wed := tue.AddDate(0, 0, 1)

	var events []*models.Event
	// Wednesday is overbooked (high) and has a tight break (medium);
	// Tuesday has a lunch conflict (low) and a tight break (medium).
	events = append(events,
		dayEvent("tue-a", tue, 12, 0, 12, 30),
		dayEvent("tue-b", tue, 12, 35, 13, 0),
	)
	for i := 0; i < 9; i++ {
		events = append(events, dayEvent(fmt.Sprintf("wed-%d", i), wed, 7+i, 0, 7+i, 55))
	}
	provider := &fakeProvider{events: events}
	s := newTestScheduler(t, provider, DefaultPreferences())

	suggestions := s.OptimizeCalendar(context.Background(), monday, 7)
	require.NotEmpty(t, suggestions)

	for i := 1; i < len(suggestions); i++ {
		assert.LessOrEqual(t, suggestions[i-1].Severity(), suggestions[i].Severity(),
			"a lower-priority suggestion appeared before a higher-priority one")
	}

	// Within the medium tier, Tuesday's break must come before Wednesday's.
	var mediums []Suggestion
	for _, sug := range suggestions {
		if sug.Severity() == SeverityMedium {
			mediums = append(mediums, sug)
		}
	}
	require.GreaterOrEqual(t, len(mediums), 2)
	assert.True(t, !mediums[0].Date().After(mediums[1].Date()),
		"suggestions within one tier must stay in day order")
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "high", SeverityHigh.String())
	assert.Equal(t, "medium", SeverityMedium.String())
	assert.Equal(t, "low", SeverityLow.String())
}
