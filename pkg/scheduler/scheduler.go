package scheduler

import (
	"errors"
	"math"
	"time"

	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// ReferenceDate is the default rotation epoch: December 1, 2025
var ReferenceDate = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrInvalidRoster   = errors.New("at least one person required")
	ErrInvalidTaskList = errors.New("at least one task required")
	ErrInvalidMonth    = errors.New("month must be between 1 and 12")
	ErrInvalidYear     = errors.New("year must be between 1900 and 2100")
)

const (
	MinYear = 1900
	MaxYear = 2100
)

// NoteLookup returns the note stored for a "YYYY-MM-DD" date, if any
type NoteLookup func(date string) (string, bool)

// Scheduler assigns persons to tasks on weekdays, rotating from a fixed reference date.
// It holds no mutable state and is safe for concurrent use.
type Scheduler struct {
	reference time.Time
	notes     NoteLookup
}

// NewScheduler creates a scheduler anchored on reference. notes may be nil.
func NewScheduler(reference time.Time, notes NoteLookup) *Scheduler {
	return &Scheduler{
		reference: Date(reference),
		notes:     notes,
	}
}

// Reference returns the rotation epoch
func (s *Scheduler) Reference() time.Time {
	return s.reference
}

// WithNotes returns a copy of the scheduler using a different note source
func (s *Scheduler) WithNotes(notes NoteLookup) *Scheduler {
	return &Scheduler{reference: s.reference, notes: notes}
}

// Build generates the schedule for a full year (month == 0) or a single month.
// Inputs are validated before any date is visited; on error nothing is returned.
func (s *Scheduler) Build(year, month int, persons, tasks []string) (*models.ScheduleResult, error) {
	if len(persons) == 0 {
		return nil, ErrInvalidRoster
	}
	if len(tasks) == 0 {
		return nil, ErrInvalidTaskList
	}
	if month < 0 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if year < MinYear || year > MaxYear {
		return nil, ErrInvalidYear
	}

	persons = append([]string(nil), persons...)
	tasks = append([]string(nil), tasks...)

	counts := make(models.TaskCounts, len(tasks))
	for _, task := range tasks {
		counts[task] = make(map[string]int, len(persons))
		for _, person := range persons {
			counts[task][person] = 0
		}
	}

	dates := DatesInRange(year, month)
	days := make([]models.DayAssignment, 0, len(dates))
	for _, d := range dates {
		days = append(days, s.day(d, persons, tasks, counts))
	}

	score := FairnessScore(counts, persons)
	return &models.ScheduleResult{
		Persons:       persons,
		Tasks:         tasks,
		Days:          days,
		TaskCounts:    counts,
		FairnessScore: &score,
	}, nil
}

// Day computes the assignment table for a single date
func (s *Scheduler) Day(date time.Time, persons, tasks []string) models.DayAssignment {
	return s.day(Date(date), persons, tasks, nil)
}

func (s *Scheduler) day(date time.Time, persons, tasks []string, counts models.TaskCounts) models.DayAssignment {
	key := date.Format(models.DateLayout)
	day := models.DayAssignment{
		Date:        key,
		DayName:     date.Weekday().String(),
		Assignments: map[string]string{},
	}
	if s.notes != nil {
		if note, ok := s.notes(key); ok {
			day.Note = &note
		}
	}
	if IsWeekend(date) {
		return day
	}
	day.Assignments = RotateAssignments(persons, tasks, WeekdayIndex(date, s.reference), counts)
	return day
}

// RotateAssignments maps every task to a person for the given weekday index.
// Task i goes to persons[(i + index mod len(persons)) mod len(persons)], so when there
// are more tasks than persons some persons get several tasks on the same day.
// counts, when non-nil, is incremented for every assignment made.
func RotateAssignments(persons, tasks []string, weekdayIndex int, counts models.TaskCounts) map[string]string {
	assignments := make(map[string]string, len(tasks))
	if len(persons) == 0 || len(tasks) == 0 {
		return assignments
	}

	cycle := mod(weekdayIndex, len(persons))
	for taskIndex, task := range tasks {
		person := persons[(taskIndex+cycle)%len(persons)]
		assignments[task] = person

		if counts != nil {
			if counts[task] == nil {
				counts[task] = make(map[string]int)
			}
			counts[task][person]++
		}
	}
	return assignments
}

// FairnessScore returns a percentage (0-100) representing how evenly duties are
// spread over persons. 100% means every person got the same number of duties.
func FairnessScore(counts models.TaskCounts, persons []string) float64 {
	if len(persons) == 0 {
		return 100.0
	}

	totals := make(map[string]float64, len(persons))
	for _, perPerson := range counts {
		for person, n := range perPerson {
			totals[person] += float64(n)
		}
	}

	var sum float64
	for _, p := range persons {
		sum += totals[p]
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(persons))
	var varianceSum float64
	for _, p := range persons {
		diff := totals[p] - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(persons)))

	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
