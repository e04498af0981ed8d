package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// DateProperty is the private extended property tying an event to a schedule date
const DateProperty = "roomduty_date"

// Report counts the calendar writes made by Publish
type Report struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Publisher writes schedules to one Google calendar
type Publisher struct {
	srv        *calendar.Service
	calendarID string
}

// NewPublisher creates a publisher for calendarID
func NewPublisher(srv *calendar.Service, calendarID string) *Publisher {
	return &Publisher{srv: srv, calendarID: calendarID}
}

// NewService creates an authenticated Calendar service from an OAuth client secrets file
// and a token previously cached in tokenFile.
func NewService(ctx context.Context, credentialsFile, tokenFile string) (*calendar.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}
	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, err
	}

	client := config.Client(ctx, tok)
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}
	return srv, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("unable to open token file %s: %w", file, err)
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// Events converts the weekdays of a schedule into all-day events.
// Weekend days carry no assignments and produce no event.
func Events(result *models.ScheduleResult, timeZone string) []*calendar.Event {
	events := make([]*calendar.Event, 0, len(result.Days))
	for _, day := range result.Days {
		if len(day.Assignments) == 0 {
			continue
		}
		events = append(events, dayEvent(day, result.Tasks, timeZone))
	}
	return events
}

func dayEvent(day models.DayAssignment, tasks []string, timeZone string) *calendar.Event {
	parts := make([]string, 0, len(tasks))
	var desc strings.Builder
	for _, task := range tasks {
		person, ok := day.Assignments[task]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", task, person))
		fmt.Fprintf(&desc, "%s: %s\n", task, person)
	}
	if day.Note != nil {
		fmt.Fprintf(&desc, "\nNote: %s\n", *day.Note)
	}

	end := day.Date
	if t, err := time.Parse(models.DateLayout, day.Date); err == nil {
		end = t.AddDate(0, 0, 1).Format(models.DateLayout)
	}

	return &calendar.Event{
		Summary:     "Room duties: " + strings.Join(parts, "; "),
		Description: desc.String(),
		Start:       &calendar.EventDateTime{Date: day.Date, TimeZone: timeZone},
		End:         &calendar.EventDateTime{Date: end, TimeZone: timeZone},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{DateProperty: day.Date},
		},
	}
}

// Publish inserts one event per weekday, patching the events already published for a date
func (p *Publisher) Publish(ctx context.Context, result *models.ScheduleResult, timeZone string) (Report, error) {
	var report Report
	for _, event := range Events(result, timeZone) {
		date := event.ExtendedProperties.Private[DateProperty]
		existing, err := p.eventForDate(ctx, date)
		if err != nil {
			return report, fmt.Errorf("error searching for event on %s: %w", date, err)
		}

		if existing != nil {
			if _, err := p.srv.Events.Patch(p.calendarID, existing.Id, event).Context(ctx).Do(); err != nil {
				return report, fmt.Errorf("patching event on %s: %w", date, err)
			}
			report.Updated++
			continue
		}
		if _, err := p.srv.Events.Insert(p.calendarID, event).Context(ctx).Do(); err != nil {
			return report, fmt.Errorf("inserting event on %s: %w", date, err)
		}
		report.Inserted++
	}
	return report, nil
}

func (p *Publisher) eventForDate(ctx context.Context, date string) (*calendar.Event, error) {
	events, err := p.srv.Events.List(p.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", DateProperty, date)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
