package database

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// SettingsID is the primary key of the single settings row
const SettingsID = "default"

// Setting represents the settings table
type Setting struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Persons   []string  `gorm:"serializer:json;not null" json:"persons"`
	Tasks     []string  `gorm:"serializer:json;not null" json:"tasks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayNote represents the day_notes table, one row per date
type DayNote struct {
	Date      string    `gorm:"primaryKey;size:10" json:"date"`
	Note      string    `gorm:"not null" json:"note"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Schedule represents the schedules table, keyed by "{year}-{month|full}"
type Schedule struct {
	ID        string                `gorm:"primaryKey" json:"id"`
	Year      int                   `gorm:"not null;index" json:"year"`
	Month     *int                  `json:"month"`
	Data      models.ScheduleResult `gorm:"serializer:json;not null" json:"schedule_data"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// User represents the users table
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string    `gorm:"not null" json:"display_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	HasAccess    bool      `gorm:"default:false" json:"has_access"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	KeyID            uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date             string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount     int    `gorm:"default:0" json:"request_count"`
	TotalDays        int    `gorm:"default:0" json:"total_days"`
	TotalAssignments int    `gorm:"default:0" json:"total_assignments"`
}

// Config selects the database backend. A non-empty DSN means Postgres,
// otherwise SQLite at Path.
type Config struct {
	DSN  string
	Path string
}

// Open connects to the configured database and migrates the schema
func Open(cfg Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gcfg := &gorm.Config{Logger: newLogger(os.Stderr)}
	if cfg.DSN != "" {
		gcfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), gcfg)
	} else {
		path := cfg.Path
		if path == "" {
			path = "roomduty.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gcfg)
		if err == nil {
			// SQLite allows a single writer; in-memory databases are per connection.
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				return nil, dbErr
			}
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newLogger reports slow queries and errors. Missing rows are an expected outcome of
// lookups such as unset settings and are not logged.
func newLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Setting{}, &DayNote{}, &Schedule{}, &User{}, &APIKey{}, &APIUsage{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
