package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HourWindow is a half-open [Start, End) range of whole hours within a day.
type HourWindow struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains reports whether the given hour falls inside the window.
func (w HourWindow) Contains(hour int) bool {
	return hour >= w.Start && hour < w.End
}

// Preferences holds the static scheduling configuration. A Preferences value
// is copied into the Scheduler at construction time and never mutated, so it
// is safe to share across concurrent requests.
type Preferences struct {
	WorkStartHour     int          `yaml:"work_start_hour"`
	WorkEndHour       int          `yaml:"work_end_hour"`
	MinBufferMinutes  int          `yaml:"min_buffer_minutes"`
	MaxMeetingsPerDay int          `yaml:"max_meetings_per_day"`
	PreferredWindows  []HourWindow `yaml:"preferred_windows"`
	LunchWindow       HourWindow   `yaml:"lunch_window"`
}

// DefaultPreferences returns the standard scheduling configuration:
// 9-to-5 working hours, a 15 minute buffer between meetings, at most 8
// meetings per day, preferred morning and mid-afternoon windows, and a
// 12-13 lunch hour.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkStartHour:     9,
		WorkEndHour:       17,
		MinBufferMinutes:  15,
		MaxMeetingsPerDay: 8,
		PreferredWindows: []HourWindow{
			{Start: 9, End: 12},
			{Start: 14, End: 16},
		},
		LunchWindow: HourWindow{Start: 12, End: 13},
	}
}

// LoadPreferences reads preferences from a YAML file. Fields omitted in the
// file keep their default values.
func LoadPreferences(path string) (Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(path)
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to read preferences file: %w", err)
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("failed to parse preferences file: %w", err)
	}
	if err := prefs.Validate(); err != nil {
		return Preferences{}, fmt.Errorf("invalid preferences in %s: %w", path, err)
	}
	return prefs, nil
}

// Validate checks that the preferences describe a usable working day.
func (p Preferences) Validate() error {
	if p.WorkStartHour < 0 || p.WorkEndHour > 24 || p.WorkStartHour >= p.WorkEndHour {
		return fmt.Errorf("working hours %d-%d are not a valid range", p.WorkStartHour, p.WorkEndHour)
	}
	if p.MinBufferMinutes < 0 {
		return fmt.Errorf("min_buffer_minutes must not be negative, got %d", p.MinBufferMinutes)
	}
	if p.MaxMeetingsPerDay <= 0 {
		return fmt.Errorf("max_meetings_per_day must be positive, got %d", p.MaxMeetingsPerDay)
	}
	for _, w := range p.PreferredWindows {
		if w.Start < 0 || w.End > 24 || w.Start >= w.End {
			return fmt.Errorf("preferred window %d-%d is not a valid range", w.Start, w.End)
		}
	}
	if lw := p.LunchWindow; lw.Start < 0 || lw.End > 24 || lw.Start >= lw.End {
		return fmt.Errorf("lunch window %d-%d is not a valid range", lw.Start, lw.End)
	}
	return nil
}
