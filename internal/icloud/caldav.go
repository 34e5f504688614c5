package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"smartsched/internal/models"
	"smartsched/internal/scheduler"
)

const (
	iCloudCalDAVEndpoint = "https://caldav.icloud.com/"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "smartsched/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient answers availability questions against a CalDAV calendar
// (iCloud). It implements scheduler.AvailabilityProvider.
//
// CalDAV has no cross-account free/busy endpoint, so busy intervals are
// derived locally from the configured calendar: the calendar owner is busy
// during every event, and any other participant is busy during events that
// list them as an attendee or organizer. This gives single-user semantics;
// attendees whose calendars live elsewhere appear free.
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
	username     string
}

var _ scheduler.AvailabilityProvider = (*CalDAVClient)(nil)

// NewClient creates and initializes a new CalDAVClient for iCloud.
func NewClient(logger *slog.Logger, username, password, calendarName string) (*CalDAVClient, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, iCloudCalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		username:     username,
	}

	logger.Info("Finding iCloud calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found iCloud calendar", "path", calendarPath)

	return c, nil
}

// ListEvents fetches events intersecting [timeMin, timeMax) via a CalDAV
// calendar-query with a time-range filter, ordered by start time.
func (c *CalDAVClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]*models.Event, error) {
	c.logger.Debug("Querying CalDAV calendar", "timeMin", timeMin, "timeMax", timeMax)

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: timeMin,
				End:   timeMax,
			}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("calendar query failed: %w", err)
	}

	var events []*models.Event
	for _, object := range objects {
		if object.Data == nil {
			continue
		}
		for _, vevent := range object.Data.Events() {
			event, err := c.toInternalEvent(vevent)
			if err != nil {
				c.logger.Warn("Failed to parse CalDAV event, skipping", "path", object.Path, "error", err)
				continue
			}
			if event.Overlaps(timeMin, timeMax) {
				events = append(events, event)
			}
		}
	}

	sortEventsByStart(events)
	c.logger.Debug("Fetched events from CalDAV", "count", len(events))
	return events, nil
}

// FreeBusy derives busy intervals for each participant from the calendar's
// events in the requested range. One calendar query covers all participants.
func (c *CalDAVClient) FreeBusy(ctx context.Context, timeMin, timeMax time.Time, participants []string) (map[string][]scheduler.Interval, error) {
	events, err := c.ListEvents(ctx, timeMin, timeMax)
	if err != nil {
		return nil, err
	}

	busy := make(map[string][]scheduler.Interval, len(participants))
	for _, participant := range participants {
		for _, event := range events {
			if !c.involves(event, participant) {
				continue
			}
			busy[participant] = append(busy[participant], scheduler.Interval{
				Start: event.StartTime,
				End:   event.EndTime,
			})
		}
	}
	return busy, nil
}

// involves reports whether the participant is tied to the event. The calendar
// owner counts as involved in everything on their own calendar; "primary" is
// an alias for the owner.
func (c *CalDAVClient) involves(event *models.Event, participant string) bool {
	if participant == c.username || participant == "primary" {
		return true
	}
	if strings.EqualFold(event.Organizer, participant) {
		return true
	}
	for _, attendee := range event.Attendees {
		if strings.EqualFold(attendee, participant) {
			return true
		}
	}
	return false
}

// toInternalEvent converts a VEVENT into the internal Event model.
func (c *CalDAVClient) toInternalEvent(vevent ical.Event) (*models.Event, error) {
	start, err := vevent.DateTimeStart(time.Local)
	if err != nil {
		return nil, fmt.Errorf("missing or invalid DTSTART: %w", err)
	}
	end, err := vevent.DateTimeEnd(time.Local)
	if err != nil {
		return nil, fmt.Errorf("missing or invalid DTEND: %w", err)
	}

	uid, _ := vevent.Props.Text(ical.PropUID)
	summary, _ := vevent.Props.Text(ical.PropSummary)
	description, _ := vevent.Props.Text(ical.PropDescription)
	location, _ := vevent.Props.Text(ical.PropLocation)

	var organizer string
	if prop := vevent.Props.Get(ical.PropOrganizer); prop != nil {
		organizer = strings.TrimPrefix(prop.Value, "mailto:")
	}

	var attendees []string
	for _, prop := range vevent.Props.Values(ical.PropAttendee) {
		attendees = append(attendees, strings.TrimPrefix(prop.Value, "mailto:"))
	}

	return &models.Event{
		ID:          uid,
		Title:       summary,
		Description: description,
		StartTime:   start,
		EndTime:     end,
		Location:    location,
		Organizer:   organizer,
		Attendees:   attendees,
		Source:      "caldav",
		UID:         uid,
	}, nil
}

// findCalendar discovers the user's calendars and returns the path for the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

func sortEventsByStart(events []*models.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
}
