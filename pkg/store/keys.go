package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// DefaultRateLimit is the daily request allowance of a new key
const DefaultRateLimit = 10000

// KeyPreview shortens a key for display, e.g. "hou...9f2c"
func KeyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// CreateKey stores a newly issued key. Only stored keys are accepted by the API.
func (s *Store) CreateKey(ctx context.Context, key, name string, rateLimit int) (*database.APIKey, error) {
	if rateLimit == 0 {
		rateLimit = DefaultRateLimit
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&database.APIKey{}).Where(&database.APIKey{Key: key}).Count(&count).Error; err != nil {
		return nil, wrap("checking key", err)
	}
	if count > 0 {
		return nil, ErrKeyExists
	}

	apiKey := &database.APIKey{
		Key:        key,
		Name:       name,
		KeyPreview: KeyPreview(key),
		RateLimit:  rateLimit,
	}
	if err := s.DB.WithContext(ctx).Create(apiKey).Error; err != nil {
		return nil, wrap("creating key", err)
	}
	return apiKey, nil
}

// UseKey fetches the record of a verified key and stamps its last use time.
// A key that was never stored, or was revoked, returns ErrNotFound.
func (s *Store) UseKey(ctx context.Context, key string) (*database.APIKey, error) {
	var apiKey database.APIKey
	if err := s.DB.WithContext(ctx).Where(&database.APIKey{Key: key}).First(&apiKey).Error; err != nil {
		return nil, wrap("fetching key", err)
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := s.DB.WithContext(ctx).Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, wrap("updating key", err)
	}
	return &apiKey, nil
}

// ListKeys returns every key
func (s *Store) ListKeys(ctx context.Context) ([]database.APIKey, error) {
	var keys []database.APIKey
	if err := s.DB.WithContext(ctx).Order("id").Find(&keys).Error; err != nil {
		return nil, wrap("listing keys", err)
	}
	return keys, nil
}

// RevokeKey deletes a key
func (s *Store) RevokeKey(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&database.APIKey{}, id)
	if res.Error != nil {
		return wrap("deleting key", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateKeyLimit changes a key's daily rate limit
func (s *Store) UpdateKeyLimit(ctx context.Context, id uint, rateLimit int) error {
	res := s.DB.WithContext(ctx).Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", rateLimit)
	if res.Error != nil {
		return wrap("updating key limit", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordUsage adds one request to today's usage row of a key using a single upsert
func (s *Store) RecordUsage(ctx context.Context, keyID uint, days, assignments int) error {
	today := usageDay()

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":     gorm.Expr("request_count + ?", 1),
			"total_days":        gorm.Expr("total_days + ?", days),
			"total_assignments": gorm.Expr("total_assignments + ?", assignments),
		}),
	}).Create(&database.APIUsage{
		KeyID:            keyID,
		Date:             today,
		RequestCount:     1,
		TotalDays:        days,
		TotalAssignments: assignments,
	}).Error
	return wrap("recording usage", err)
}

// UsageForKey returns the last 30 days of usage of a key, newest first
func (s *Store) UsageForKey(ctx context.Context, keyID uint) ([]database.APIUsage, error) {
	var usage []database.APIUsage
	err := s.DB.WithContext(ctx).Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	if err != nil {
		return nil, wrap("fetching usage", err)
	}
	return usage, nil
}

// RequestsToday returns how many requests a key made today
func (s *Store) RequestsToday(ctx context.Context, keyID uint) (int, error) {
	var usage database.APIUsage
	err := s.DB.WithContext(ctx).
		Where("key_id = ? AND date = ?", keyID, usageDay()).
		Limit(1).Find(&usage).Error
	if err != nil {
		return 0, wrap("fetching usage", err)
	}
	return usage.RequestCount, nil
}

// usageDay is the current UTC day, the unit of usage rows and rate limits
func usageDay() string {
	return time.Now().UTC().Format(models.DateLayout)
}
