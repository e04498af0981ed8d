package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DefaultPersons is the roster used when no settings have been saved
var DefaultPersons = []string{"Dinesh", "Harsha", "Srinivas"}

// DefaultTasks is the task list used when no settings have been saved
var DefaultTasks = []string{"Cooking", "Dish Washing", "Cutting & Rice"}

// DayAssignment is the duty table for one calendar date
type DayAssignment struct {
	Date        string            `json:"date"`
	DayName     string            `json:"day_name"`
	Assignments map[string]string `json:"assignments"` // task -> person, empty on weekends
	Note        *string           `json:"note"`
}

// TaskCounts tallies how many times each person got each task
type TaskCounts map[string]map[string]int

// ScheduleResult is a generated schedule together with the roster that produced it
type ScheduleResult struct {
	Persons       []string        `json:"persons"`
	Tasks         []string        `json:"tasks"`
	Days          []DayAssignment `json:"days"`
	TaskCounts    TaskCounts      `json:"task_counts,omitempty"`
	FairnessScore *float64        `json:"fairness_score,omitempty"`
}

// ScheduleRequest is the body for the generate endpoints. Year 0 means the current year,
// month 0 the full year. Nil persons/tasks fall back to the saved settings.
type ScheduleRequest struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	Persons []string `json:"persons"`
	Tasks   []string `json:"tasks"`
}

// Settings is the roster and task list shared by the household
type Settings struct {
	Persons []string `json:"persons"`
	Tasks   []string `json:"tasks"`
}

// DayNote is a free-text note attached to one date
type DayNote struct {
	Date        string  `json:"date"`
	Note        string  `json:"note"`
	CreatedBy   *string `json:"created_by"`
	CreatorName *string `json:"creator_name"`
}

// UserPublic is the user representation returned to clients
type UserPublic struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	HasAccess   bool      `json:"has_access"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenResponse is returned by login and registration
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        UserPublic `json:"user"`
}

// ScheduleKey is the persistence key for a generated schedule: "{year}-{month|full}"
func ScheduleKey(year, month int) string {
	if month == 0 {
		return fmt.Sprintf("%d-full", year)
	}
	return fmt.Sprintf("%d-%d", year, month)
}
