// Package scheduler implements the meeting scheduling engine: candidate slot
// generation, multi-attendee conflict resolution with scored ranking, and
// calendar health analysis. The engine is a stateless library; all calendar
// reads go through an injected AvailabilityProvider and nothing is ever
// written back.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smartsched/internal/models"
)

const (
	defaultHorizonDays = 14
	defaultMaxResults  = 5
	defaultWorkers     = 4

	// neighborWindow is how far around a slot we look for adjacent events
	// when judging buffer quality.
	neighborWindow = 2 * time.Hour

	// selfCalendar identifies the organizer's own calendar when a request
	// names no attendees.
	selfCalendar = "primary"
)

// Scheduler searches for viable meeting slots and analyzes calendar health.
// It holds no mutable state between calls; a single Scheduler is safe for
// concurrent use.
type Scheduler struct {
	logger      *slog.Logger
	provider    AvailabilityProvider
	prefs       Preferences
	now         func() time.Time
	horizonDays int
	maxResults  int
	workers     int
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source. Used by tests to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithHorizon sets how many calendar days ahead the slot search covers.
func WithHorizon(days int) Option {
	return func(s *Scheduler) { s.horizonDays = days }
}

// WithWorkers bounds the number of concurrent slot evaluations.
func WithWorkers(n int) Option {
	return func(s *Scheduler) { s.workers = n }
}

// New creates a Scheduler backed by the given availability provider.
func New(logger *slog.Logger, provider AvailabilityProvider, prefs Preferences, opts ...Option) (*Scheduler, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		logger:      logger,
		provider:    provider,
		prefs:       prefs,
		now:         time.Now,
		horizonDays: defaultHorizonDays,
		maxResults:  defaultMaxResults,
		workers:     defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ResolveConflicts finds the best times for the requested meeting. It returns
// at most five slots, sorted by descending score with earlier slots first on
// ties. Any slot where an attendee is busy is excluded outright, whatever it
// would otherwise have scored. Failures while evaluating a single candidate
// skip that candidate only; an empty result means no slot satisfies the
// constraints and is not an error.
func (s *Scheduler) ResolveConflicts(ctx context.Context, req *MeetingRequest) []TimeSlot {
	logger := s.logger.With("requestID", uuid.NewString())

	if req == nil {
		logger.Error("No meeting request provided")
		return nil
	}
	if req.DurationMinutes <= 0 {
		logger.Error("Invalid meeting duration", "durationMinutes", req.DurationMinutes)
		return nil
	}

	// An empty attendee list deliberately degrades to checking only the
	// organizer's own calendar, which makes personal time-blocking work.
	participants := req.Attendees
	if len(participants) == 0 {
		self := req.Organizer
		if self == "" {
			self = selfCalendar
		}
		logger.Warn("No attendees specified, checking only the organizer's own calendar", "calendar", self)
		participants = []string{self}
	}

	var candidates []TimeSlot
	for slot := range generateSlots(s.now(), s.horizonDays, req.DurationMinutes, s.prefs) {
		candidates = append(candidates, slot)
	}
	if len(candidates) == 0 {
		logger.Warn("No potential time slots in horizon", "horizonDays", s.horizonDays)
		return nil
	}

	// Evaluate candidates on a bounded pool. Per-slot availability checks
	// are independent reads, so only latency changes; results are indexed
	// by candidate so the final ranking matches a sequential evaluation.
	evaluated := make([]*TimeSlot, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slot, err := s.evaluateSlot(ctx, candidates[i], participants)
			if err != nil {
				logger.Warn("Error evaluating time slot, skipping candidate",
					"start", candidates[i].Start, "error", err)
				return nil
			}
			evaluated[i] = slot
			return nil
		})
	}
	_ = g.Wait()

	var viable []TimeSlot
	for _, slot := range evaluated {
		if slot == nil {
			continue
		}
		if len(slot.Conflicts) > 0 {
			// Hard veto: an attendee conflict disqualifies the slot
			// regardless of score.
			logger.Debug("Slot disqualified by attendee conflict",
				"start", slot.Start, "attendees", len(slot.Conflicts))
			continue
		}
		viable = append(viable, *slot)
	}

	sort.SliceStable(viable, func(i, j int) bool {
		return viable[i].Score > viable[j].Score
	})

	if len(viable) == 0 {
		logger.Warn("No viable time slots found after conflict resolution")
		return nil
	}
	logger.Info("Found viable time slots", "count", len(viable))

	if len(viable) > s.maxResults {
		viable = viable[:s.maxResults]
	}
	return viable
}

// evaluateSlot checks availability for one candidate and scores it. A slot
// with any busy attendee comes back with score 0 and the conflicting events
// recorded per attendee; otherwise the score starts at 1.0 and each
// adjustment appends a note explaining itself.
func (s *Scheduler) evaluateSlot(ctx context.Context, slot TimeSlot, participants []string) (*TimeSlot, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// One free/busy call covers every participant; this bounds remote call
	// volume to one per candidate slot.
	busy, err := s.provider.FreeBusy(ctx, slot.Start, slot.End, participants)
	if err != nil {
		return nil, err
	}

	conflicts := make(map[string][]*models.Event)
	var conflicting []*models.Event
	for _, participant := range participants {
		if len(busy[participant]) == 0 {
			continue
		}
		if conflicting == nil {
			conflicting, err = s.provider.ListEvents(ctx, slot.Start, slot.End)
			if err != nil {
				return nil, err
			}
		}
		conflicts[participant] = conflicting
		slot.Notes = append(slot.Notes, "Conflicts for "+participant)
	}
	if len(conflicts) > 0 {
		slot.Score = 0
		slot.Conflicts = conflicts
		return &slot, nil
	}
	slot.Conflicts = conflicts

	score := 1.0

	for _, window := range s.prefs.PreferredWindows {
		if window.Contains(slot.Start.Hour()) {
			score += 0.2
			slot.Notes = append(slot.Notes, "Within preferred hours")
			break
		}
	}

	neighbors, err := s.provider.ListEvents(ctx, slot.Start.Add(-neighborWindow), slot.End.Add(neighborWindow))
	if err != nil {
		return nil, err
	}
	if gap, ok := nearestGap(slot, neighbors); ok {
		minutes := int(gap.Minutes())
		if minutes >= s.prefs.MinBufferMinutes {
			score += 0.1
			slot.Notes = append(slot.Notes, fmt.Sprintf("Good buffer time: %d minutes", minutes))
		} else {
			score -= 0.1
			slot.Notes = append(slot.Notes, fmt.Sprintf("Limited buffer time: %d minutes", minutes))
		}
	}

	if s.overlapsLunch(slot.Start, slot.End) {
		score -= 0.2
		slot.Notes = append(slot.Notes, "Conflicts with typical lunch hour")
	}

	slot.Score = score
	return &slot, nil
}

// nearestGap returns the smallest idle gap between the slot and any
// neighboring event that ends before the slot starts or starts after it
// ends. ok is false when no such neighbor exists.
func nearestGap(slot TimeSlot, neighbors []*models.Event) (time.Duration, bool) {
	var min time.Duration
	found := false
	for _, event := range neighbors {
		var gap time.Duration
		switch {
		case !event.EndTime.After(slot.Start):
			gap = slot.Start.Sub(event.EndTime)
		case !event.StartTime.Before(slot.End):
			gap = event.StartTime.Sub(slot.End)
		default:
			continue
		}
		if !found || gap < min {
			min = gap
			found = true
		}
	}
	return min, found
}

// overlapsLunch reports whether [start, end) intersects the lunch window on
// the day the slot starts.
func (s *Scheduler) overlapsLunch(start, end time.Time) bool {
	year, month, day := start.Date()
	lunchStart := time.Date(year, month, day, s.prefs.LunchWindow.Start, 0, 0, 0, start.Location())
	lunchEnd := time.Date(year, month, day, s.prefs.LunchWindow.End, 0, 0, 0, start.Location())
	return start.Before(lunchEnd) && end.After(lunchStart)
}
