package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/roomduty/roomduty-api-go/pkg/models"
)

func sample() *models.ScheduleResult {
	note := "Guests"
	return &models.ScheduleResult{
		Persons: []string{"A", "B"},
		Tasks:   []string{"Cooking", "Dish Washing"},
		Days: []models.DayAssignment{
			{Date: "2025-12-05", DayName: "Friday", Assignments: map[string]string{"Cooking": "A", "Dish Washing": "B"}, Note: &note},
			{Date: "2025-12-06", DayName: "Saturday", Assignments: map[string]string{}},
			{Date: "2025-12-31", DayName: "Wednesday", Assignments: map[string]string{"Cooking": "B", "Dish Washing": "A"}},
		},
	}
}

func TestEvents(t *testing.T) {
	events := Events(sample(), "Asia/Kolkata")
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "Room duties: Cooking: A; Dish Washing: B", first.Summary)
	assert.Equal(t, "Cooking: A\nDish Washing: B\n\nNote: Guests\n", first.Description)
	assert.Equal(t, "2025-12-05", first.Start.Date)
	assert.Equal(t, "2025-12-06", first.End.Date)
	assert.Equal(t, "Asia/Kolkata", first.Start.TimeZone)
	assert.Equal(t, "2025-12-05", first.ExtendedProperties.Private[DateProperty])

	assert.Equal(t, "2026-01-01", events[1].End.Date)
}

// fakeCalendar serves the three event endpoints Publish uses
type fakeCalendar struct {
	mu       sync.Mutex
	existing map[string]string // date -> event id
	inserted []string
	patched  []string
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		prop := r.URL.Query().Get("privateExtendedProperty")
		date := strings.TrimPrefix(prop, DateProperty+"=")
		events := &calendar.Events{Items: []*calendar.Event{}}
		if id, ok := f.existing[date]; ok {
			events.Items = append(events.Items, &calendar.Event{Id: id})
		}
		_ = json.NewEncoder(w).Encode(events)
	case http.MethodPost:
		var ev calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.inserted = append(f.inserted, ev.Start.Date)
		_ = json.NewEncoder(w).Encode(&calendar.Event{Id: "new-" + ev.Start.Date})
	case http.MethodPatch:
		parts := strings.Split(r.URL.Path, "/")
		f.patched = append(f.patched, parts[len(parts)-1])
		_ = json.NewEncoder(w).Encode(&calendar.Event{Id: parts[len(parts)-1]})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestPublish(t *testing.T) {
	fake := &fakeCalendar{existing: map[string]string{"2025-12-31": "evt-31"}}
	server := httptest.NewServer(fake)
	defer server.Close()

	ctx := context.Background()
	srv, err := calendar.NewService(ctx,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	report, err := NewPublisher(srv, "house").Publish(ctx, sample(), "")
	require.NoError(t, err)
	assert.Equal(t, Report{Inserted: 1, Updated: 1}, report)
	assert.Equal(t, []string{"2025-12-05"}, fake.inserted)
	assert.Equal(t, []string{"evt-31"}, fake.patched)
}

func TestNewService_MissingFiles(t *testing.T) {
	_, err := NewService(context.Background(), "does-not-exist.json", "token.json")
	assert.Error(t, err)
}
