package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrInvalidNote     = errors.New("invalid day note")
	ErrInvalidDate     = errors.New("invalid date format, use YYYY-MM-DD")
	ErrUserExists      = errors.New("user already exists")
	ErrKeyExists       = errors.New("api key already exists")
)

// MaxNoteLength is the longest note accepted, in characters
const MaxNoteLength = 500

// Store wraps the gorm connection with the household's persistence operations
type Store struct {
	DB *gorm.DB
}

// New creates a store on top of an open, migrated database
func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CleanNames trims every entry and drops the blank ones
func CleanNames(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}
