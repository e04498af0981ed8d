package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// GetSettings returns the saved roster and task list, or the defaults when nothing is saved
func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var row database.Setting
	err := s.DB.WithContext(ctx).Where(&database.Setting{ID: database.SettingsID}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, wrap("fetching settings", err)
	}

	settings := models.Settings{Persons: trimAll(row.Persons), Tasks: trimAll(row.Tasks)}
	if len(settings.Persons) == 0 {
		settings.Persons = append([]string(nil), models.DefaultPersons...)
	}
	if len(settings.Tasks) == 0 {
		settings.Tasks = append([]string(nil), models.DefaultTasks...)
	}
	return settings, nil
}

// SaveSettings validates and upserts the single settings row
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	cleaned, err := ValidateSettings(settings)
	if err != nil {
		return models.Settings{}, err
	}

	row := database.Setting{ID: database.SettingsID, Persons: cleaned.Persons, Tasks: cleaned.Tasks}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"persons", "tasks", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return models.Settings{}, wrap("saving settings", err)
	}
	return cleaned, nil
}

// ValidateSettings trims names and rejects empty lists, blank names or duplicates
func ValidateSettings(settings models.Settings) (models.Settings, error) {
	if len(settings.Persons) == 0 {
		return models.Settings{}, fmt.Errorf("%w: at least one person is required", ErrInvalidSettings)
	}
	if len(settings.Tasks) == 0 {
		return models.Settings{}, fmt.Errorf("%w: at least one task is required", ErrInvalidSettings)
	}
	persons := trimAll(settings.Persons)
	for _, p := range persons {
		if p == "" {
			return models.Settings{}, fmt.Errorf("%w: person name cannot be empty", ErrInvalidSettings)
		}
	}
	tasks := trimAll(settings.Tasks)
	for _, t := range tasks {
		if t == "" {
			return models.Settings{}, fmt.Errorf("%w: task name cannot be empty", ErrInvalidSettings)
		}
	}
	if err := CheckDuplicates(persons, tasks); err != nil {
		return models.Settings{}, err
	}
	return models.Settings{Persons: persons, Tasks: tasks}, nil
}

// CheckDuplicates rejects a roster or task list naming the same entry twice.
// A repeated task would collapse into one assignment per day.
func CheckDuplicates(persons, tasks []string) error {
	if name, ok := firstDuplicate(persons); ok {
		return fmt.Errorf("%w: duplicate person: %s", ErrInvalidSettings, name)
	}
	if name, ok := firstDuplicate(tasks); ok {
		return fmt.Errorf("%w: duplicate task: %s", ErrInvalidSettings, name)
	}
	return nil
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v, true
		}
		seen[v] = true
	}
	return "", false
}

// DefaultSettings returns a fresh copy of the default roster and tasks
func DefaultSettings() models.Settings {
	return models.Settings{
		Persons: append([]string(nil), models.DefaultPersons...),
		Tasks:   append([]string(nil), models.DefaultTasks...),
	}
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
