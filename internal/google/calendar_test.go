package google

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestToIntervals(t *testing.T) {
	periods := []*calendar.TimePeriod{
		{Start: "2025-03-04T10:00:00Z", End: "2025-03-04T11:00:00Z"},
		{Start: "not a time", End: "2025-03-04T12:00:00Z"}, // dropped
	}

	intervals := toIntervals(periods)
	require.Len(t, intervals, 1)
	assert.True(t, intervals[0].Start.Equal(time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)))
	assert.True(t, intervals[0].End.Equal(time.Date(2025, time.March, 4, 11, 0, 0, 0, time.UTC)))
}

func TestToInternalEvents(t *testing.T) {
	c := &CalendarClient{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	items := []*calendar.Event{
		{
			Id:      "evt-1",
			Summary: "Planning",
			Start:   &calendar.EventDateTime{DateTime: "2025-03-04T09:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2025-03-04T10:00:00Z"},
			Attendees: []*calendar.EventAttendee{
				{Email: "a@example.com"},
			},
			Organizer: &calendar.EventOrganizer{Email: "owner@example.com"},
			ICalUID:   "uid-1",
		},
		{
			// All-day events carry a date but no dateTime and are skipped.
			Id:    "evt-allday",
			Start: &calendar.EventDateTime{Date: "2025-03-04"},
			End:   &calendar.EventDateTime{Date: "2025-03-05"},
		},
	}

	events := c.toInternalEvents(items)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "Planning", events[0].Title)
	assert.Equal(t, "owner@example.com", events[0].Organizer)
	assert.Equal(t, []string{"a@example.com"}, events[0].Attendees)
	assert.Equal(t, "uid-1", events[0].UID)
	assert.Equal(t, "google", events[0].Source)
}
