package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectSlots(now time.Time, horizonDays, durationMinutes int, prefs Preferences) []TimeSlot {
	var out []TimeSlot
	for slot := range generateSlots(now, horizonDays, durationMinutes, prefs) {
		out = append(out, slot)
	}
	return out
}

func TestGenerateSlots_Properties(t *testing.T) {
	prefs := DefaultPreferences()
	slots := collectSlots(monday, 14, 60, prefs)
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		assert.True(t, slot.Start.Before(slot.End))
		assert.NotEqual(t, time.Saturday, slot.Start.Weekday())
		assert.NotEqual(t, time.Sunday, slot.Start.Weekday())
		assert.GreaterOrEqual(t, slot.Start.Hour(), prefs.WorkStartHour)
		assert.Less(t, slot.Start.Hour(), prefs.WorkEndHour)

		dayEnd := time.Date(slot.Start.Year(), slot.Start.Month(), slot.Start.Day(),
			prefs.WorkEndHour, 0, 0, 0, slot.Start.Location())
		assert.False(t, slot.End.After(dayEnd), "slot %s runs past working hours", slot.Start)
	}
}

func TestGenerateSlots_StartsTomorrow(t *testing.T) {
	slots := collectSlots(monday, 14, 60, DefaultPreferences())
	require.NotEmpty(t, slots)
	assert.Equal(t, tuesdayAt(9, 0), slots[0].Start, "search begins on the next calendar day")
}

func TestGenerateSlots_SkipsWeekends(t *testing.T) {
	friday := time.Date(2025, time.March, 7, 8, 0, 0, 0, time.UTC)
	slots := collectSlots(friday, 4, 60, DefaultPreferences())
	require.NotEmpty(t, slots)

	// Saturday the 8th and Sunday the 9th produce nothing; the first slot
	// lands on Monday the 10th.
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), slots[0].Start)
}

func TestGenerateSlots_Granularity(t *testing.T) {
	slots := collectSlots(monday, 1, 60, DefaultPreferences())
	// 9:00 through 16:00 starts at 30-minute steps for a one-hour meeting.
	assert.Len(t, slots, 15)
	assert.Equal(t, tuesdayAt(9, 30), slots[1].Start)
}

func TestGenerateSlots_FullDayMeetingFitsOnce(t *testing.T) {
	slots := collectSlots(monday, 1, 8*60, DefaultPreferences())
	// Only the 9:00 start keeps an eight-hour meeting inside 9-17.
	require.Len(t, slots, 1)
	assert.Equal(t, tuesdayAt(9, 0), slots[0].Start)
	assert.Equal(t, tuesdayAt(17, 0), slots[0].End)
}

func TestGenerateSlots_OversizedMeetingYieldsNothing(t *testing.T) {
	slots := collectSlots(monday, 5, 9*60, DefaultPreferences())
	assert.Empty(t, slots)
}

func TestGenerateSlots_Restartable(t *testing.T) {
	seq := generateSlots(monday, 3, 30, DefaultPreferences())

	var first, second []TimeSlot
	for slot := range seq {
		first = append(first, slot)
	}
	for slot := range seq {
		second = append(second, slot)
	}
	assert.Equal(t, first, second)
}
