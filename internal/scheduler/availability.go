package scheduler

import (
	"context"
	"time"

	"smartsched/internal/models"
)

// Interval is a half-open [Start, End) span of busy time on a participant's
// calendar.
type Interval struct {
	Start time.Time
	End   time.Time
}

// AvailabilityProvider is the read-only calendar boundary the engine depends
// on. Implementations answer free/busy questions and list events; the engine
// never creates, updates or deletes anything through this interface.
type AvailabilityProvider interface {
	// ListEvents returns all events intersecting [timeMin, timeMax),
	// ordered by start time.
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]*models.Event, error)

	// FreeBusy returns the busy intervals within [timeMin, timeMax) for
	// each requested participant, keyed by participant ID. One call covers
	// all participants; callers must not loop over participants themselves.
	FreeBusy(ctx context.Context, timeMin, timeMax time.Time, participants []string) (map[string][]Interval, error)
}
