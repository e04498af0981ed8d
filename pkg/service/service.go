package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roomduty/roomduty-api-go/pkg/metrics"
	"github.com/roomduty/roomduty-api-go/pkg/models"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

// ScheduleService ties the rotation scheduler to the stored settings, notes and schedules
type ScheduleService struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// New creates the service. metrics may be nil.
func New(st *store.Store, sched *scheduler.Scheduler, m *metrics.Collector, logger *slog.Logger) *ScheduleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		store:     st,
		scheduler: sched,
		metrics:   m,
		logger:    logger,
	}
}

// Roster resolves the persons and tasks to use. Nil lists fall back to the saved settings,
// which themselves fall back to the defaults. Provided lists are trimmed and blanks dropped;
// duplicate names are rejected.
func (s *ScheduleService) Roster(ctx context.Context, persons, tasks []string) ([]string, []string, error) {
	if persons != nil && tasks != nil {
		return cleanRoster(persons, tasks)
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	if persons == nil {
		persons = settings.Persons
	}
	if tasks == nil {
		tasks = settings.Tasks
	}
	return cleanRoster(persons, tasks)
}

func cleanRoster(persons, tasks []string) ([]string, []string, error) {
	persons, tasks = store.CleanNames(persons), store.CleanNames(tasks)
	if err := store.CheckDuplicates(persons, tasks); err != nil {
		return nil, nil, err
	}
	return persons, tasks, nil
}

// Generate builds the schedule for req and stores it under its key.
// A failure to store is logged and does not fail the request.
func (s *ScheduleService) Generate(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResult, error) {
	persons, tasks, err := s.Roster(ctx, req.Persons, req.Tasks)
	if err != nil {
		s.metrics.GenerationFailed(Reason(err))
		return nil, err
	}

	start := time.Now()
	sched := s.scheduler.WithNotes(s.noteLookup(ctx, req.Year, req.Month))
	result, err := sched.Build(req.Year, req.Month, persons, tasks)
	if err != nil {
		s.metrics.GenerationFailed(Reason(err))
		return nil, err
	}
	s.metrics.ScheduleGenerated(req.Month, len(result.Days), time.Since(start))

	if err := s.store.SaveSchedule(ctx, req.Year, req.Month, result); err != nil {
		s.metrics.PersistFailed()
		s.logger.Warn("schedule not persisted",
			"key", models.ScheduleKey(req.Year, req.Month),
			"error", err)
	}

	s.logger.Debug("schedule generated",
		"key", models.ScheduleKey(req.Year, req.Month),
		"days", len(result.Days),
		"persons", len(persons),
		"tasks", len(tasks))
	return result, nil
}

// Get returns a previously generated schedule
func (s *ScheduleService) Get(ctx context.Context, year, month int) (*models.ScheduleResult, error) {
	return s.store.GetSchedule(ctx, year, month)
}

// Today computes the duty table for one date from the current settings and its note
func (s *ScheduleService) Today(ctx context.Context, date time.Time) (models.DayAssignment, error) {
	persons, tasks, err := s.Roster(ctx, nil, nil)
	if err != nil {
		return models.DayAssignment{}, err
	}
	if len(persons) == 0 {
		return models.DayAssignment{}, scheduler.ErrInvalidRoster
	}
	if len(tasks) == 0 {
		return models.DayAssignment{}, scheduler.ErrInvalidTaskList
	}

	date = scheduler.Date(date)
	key := date.Format(models.DateLayout)
	notes, err := s.store.NotesBetween(ctx, key, key)
	if err != nil {
		s.logger.Warn("loading day note", "date", key, "error", err)
	}
	return s.scheduler.WithNotes(mapLookup(notes)).Day(date, persons, tasks), nil
}

// noteLookup loads every note in the requested range with one query.
// Invalid ranges and load failures yield no notes.
func (s *ScheduleService) noteLookup(ctx context.Context, year, month int) scheduler.NoteLookup {
	if year < scheduler.MinYear || year > scheduler.MaxYear || month < 0 || month > 12 {
		return nil
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if month != 0 {
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, -1)
	}

	notes, err := s.store.NotesBetween(ctx, from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		s.logger.Warn("loading day notes, continuing without them", "year", year, "month", month, "error", err)
		return nil
	}
	return mapLookup(notes)
}

func mapLookup(notes map[string]string) scheduler.NoteLookup {
	if len(notes) == 0 {
		return nil
	}
	return func(date string) (string, bool) {
		note, ok := notes[date]
		return note, ok
	}
}

// Reason is a short metrics label for a generation error
func Reason(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrInvalidRoster):
		return "invalid_roster"
	case errors.Is(err, scheduler.ErrInvalidTaskList):
		return "invalid_task_list"
	case errors.Is(err, scheduler.ErrInvalidMonth):
		return "invalid_month"
	case errors.Is(err, scheduler.ErrInvalidYear):
		return "invalid_year"
	case errors.Is(err, store.ErrInvalidSettings):
		return "invalid_settings"
	default:
		return "internal"
	}
}
