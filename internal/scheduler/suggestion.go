package scheduler

import (
	"fmt"
	"time"
)

// Severity is the priority tier of an optimization suggestion. Lower rank
// sorts first.
type Severity int

const (
	SeverityHigh Severity = iota
	SeverityMedium
	SeverityLow
)

// String returns the lowercase name of the severity tier.
func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Suggestion is a calendar-health finding produced by OptimizeCalendar.
// Each concrete type carries only the fields relevant to its rule, so
// callers can type-switch exhaustively over OverbookedDay,
// InsufficientBreak and LunchConflict when rendering.
type Suggestion interface {
	// Date is the calendar day (midnight, local) the finding applies to.
	Date() time.Time
	// Severity is the fixed priority tier of the rule that fired.
	Severity() Severity
	// EventIDs lists the calendar events involved in the finding.
	EventIDs() []string
	// Message is a human-readable description of the finding.
	Message() string
}

// OverbookedDay reports a day whose meeting count exceeds the configured
// daily cap.
type OverbookedDay struct {
	Day          time.Time
	MeetingCount int
	IDs          []string
}

func (s OverbookedDay) Date() time.Time    { return s.Day }
func (s OverbookedDay) Severity() Severity { return SeverityHigh }
func (s OverbookedDay) EventIDs() []string { return s.IDs }
func (s OverbookedDay) Message() string {
	return fmt.Sprintf("Day is overbooked with %d meetings", s.MeetingCount)
}

// InsufficientBreak reports two consecutive meetings separated by less than
// the minimum buffer.
type InsufficientBreak struct {
	Day           time.Time
	FirstEventID  string
	SecondEventID string
	GapMinutes    int
}

func (s InsufficientBreak) Date() time.Time    { return s.Day }
func (s InsufficientBreak) Severity() Severity { return SeverityMedium }
func (s InsufficientBreak) EventIDs() []string { return []string{s.FirstEventID, s.SecondEventID} }
func (s InsufficientBreak) Message() string {
	return fmt.Sprintf("Only %d minutes between meetings", s.GapMinutes)
}

// LunchConflict reports all meetings on one day that intersect the lunch
// window. A day produces at most one LunchConflict regardless of how many
// events intrude on lunch.
type LunchConflict struct {
	Day time.Time
	IDs []string
}

func (s LunchConflict) Date() time.Time    { return s.Day }
func (s LunchConflict) Severity() Severity { return SeverityLow }
func (s LunchConflict) EventIDs() []string { return s.IDs }
func (s LunchConflict) Message() string {
	return "Meetings scheduled during typical lunch hour"
}
