package store

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm/clause"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// ValidateDate checks a "YYYY-MM-DD" date string and returns it normalised
func ValidateDate(s string) (string, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(models.DateLayout), nil
}

// GetNote returns the note for a date along with its author's display name
func (s *Store) GetNote(ctx context.Context, date string) (models.DayNote, error) {
	date, err := ValidateDate(date)
	if err != nil {
		return models.DayNote{}, err
	}

	var row database.DayNote
	if err := s.DB.WithContext(ctx).Where(&database.DayNote{Date: date}).First(&row).Error; err != nil {
		return models.DayNote{}, wrap("fetching day note", err)
	}
	return s.noteWithCreator(ctx, row), nil
}

// SetNote upserts the note for a date. The note is trimmed and must be 1-500 characters.
func (s *Store) SetNote(ctx context.Context, date, note string, createdBy *string) (models.DayNote, error) {
	date, err := ValidateDate(date)
	if err != nil {
		return models.DayNote{}, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return models.DayNote{}, fmt.Errorf("%w: note cannot be empty", ErrInvalidNote)
	}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return models.DayNote{}, fmt.Errorf("%w: note must be at most %d characters", ErrInvalidNote, MaxNoteLength)
	}

	row := database.DayNote{Date: date, Note: note, CreatedBy: createdBy}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"note", "created_by", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return models.DayNote{}, wrap("saving day note", err)
	}
	return s.noteWithCreator(ctx, row), nil
}

// DeleteNote removes the note for a date. Deleting a missing note is not an error.
func (s *Store) DeleteNote(ctx context.Context, date string) error {
	date, err := ValidateDate(date)
	if err != nil {
		return err
	}
	return wrap("deleting day note", s.DB.WithContext(ctx).Delete(&database.DayNote{}, "date = ?", date).Error)
}

// NotesBetween returns date -> note for every note in [from, to], both "YYYY-MM-DD"
func (s *Store) NotesBetween(ctx context.Context, from, to string) (map[string]string, error) {
	var rows []database.DayNote
	err := s.DB.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("fetching day notes", err)
	}

	notes := make(map[string]string, len(rows))
	for _, r := range rows {
		notes[r.Date] = r.Note
	}
	return notes, nil
}

// NotesOn returns every note stored for one date, with creator names
func (s *Store) NotesOn(ctx context.Context, date string) ([]models.DayNote, error) {
	var rows []database.DayNote
	if err := s.DB.WithContext(ctx).Where(&database.DayNote{Date: date}).Find(&rows).Error; err != nil {
		return nil, wrap("fetching day notes", err)
	}
	notes := make([]models.DayNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, s.noteWithCreator(ctx, r))
	}
	return notes, nil
}

func (s *Store) noteWithCreator(ctx context.Context, row database.DayNote) models.DayNote {
	note := models.DayNote{Date: row.Date, Note: row.Note, CreatedBy: row.CreatedBy}
	if row.CreatedBy == nil {
		return note
	}
	user, err := s.UserByID(ctx, *row.CreatedBy)
	if err != nil {
		return note
	}
	name := user.DisplayName
	if name == "" {
		name = user.Email
	}
	note.CreatorName = &name
	return note
}
