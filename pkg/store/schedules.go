package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// SaveSchedule upserts a generated schedule under its "{year}-{month|full}" key
func (s *Store) SaveSchedule(ctx context.Context, year, month int, result *models.ScheduleResult) error {
	row := database.Schedule{
		ID:   models.ScheduleKey(year, month),
		Year: year,
		Data: *result,
	}
	if month != 0 {
		row.Month = &month
	}

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	return wrap("saving schedule", err)
}

// GetSchedule loads a previously saved schedule, or ErrNotFound
func (s *Store) GetSchedule(ctx context.Context, year, month int) (*models.ScheduleResult, error) {
	var row database.Schedule
	err := s.DB.WithContext(ctx).Where(&database.Schedule{ID: models.ScheduleKey(year, month)}).First(&row).Error
	if err != nil {
		return nil, wrap("fetching schedule", err)
	}

	result := row.Data
	if result.Persons == nil {
		result.Persons = []string{}
	}
	if result.Tasks == nil {
		result.Tasks = []string{}
	}
	if result.Days == nil {
		result.Days = []models.DayAssignment{}
	}
	return &result, nil
}
