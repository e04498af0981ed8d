package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func TestSettings_DefaultsWhenUnset(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPersons, settings.Persons)
	assert.Equal(t, models.DefaultTasks, settings.Tasks)
}

func TestSettings_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveSettings(ctx, models.Settings{Persons: []string{" Asha ", "Ben"}, Tasks: []string{"Sweeping"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asha", "Ben"}, saved.Persons)

	_, err = s.SaveSettings(ctx, models.Settings{Persons: []string{"Asha", "Ben", "Chen"}, Tasks: []string{"Sweeping", "Mopping"}})
	require.NoError(t, err)

	loaded, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Asha", "Ben", "Chen"}, loaded.Persons)
	assert.Equal(t, []string{"Sweeping", "Mopping"}, loaded.Tasks)
}

func TestSettings_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSettings(ctx, models.Settings{Tasks: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = s.SaveSettings(ctx, models.Settings{Persons: []string{"a", "  "}, Tasks: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = s.SaveSettings(ctx, models.Settings{Persons: []string{"a"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = s.SaveSettings(ctx, models.Settings{Persons: []string{"a", "b"}, Tasks: []string{"Cooking", "Cooking ", "Dishes"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "duplicate task: Cooking")

	_, err = s.SaveSettings(ctx, models.Settings{Persons: []string{"a", " a"}, Tasks: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTasks, settings.Tasks)
}

func TestNotes_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "Asha@Example.com", "Asha", "hash", false, true)
	require.NoError(t, err)

	note, err := s.SetNote(ctx, "2026-01-26", "  Republic Day  ", &user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Republic Day", note.Note)
	require.NotNil(t, note.CreatorName)
	assert.Equal(t, "Asha", *note.CreatorName)

	_, err = s.SetNote(ctx, "2026-01-26", "Holiday", nil)
	require.NoError(t, err)

	got, err := s.GetNote(ctx, "2026-01-26")
	require.NoError(t, err)
	assert.Equal(t, "Holiday", got.Note)
	assert.Nil(t, got.CreatedBy)

	_, err = s.SetNote(ctx, "2026-02-01", "Rent due", nil)
	require.NoError(t, err)
	_, err = s.SetNote(ctx, "2026-03-01", "Outside", nil)
	require.NoError(t, err)

	notes, err := s.NotesBetween(ctx, "2026-01-01", "2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2026-01-26": "Holiday", "2026-02-01": "Rent due"}, notes)

	require.NoError(t, s.DeleteNote(ctx, "2026-01-26"))
	_, err = s.GetNote(ctx, "2026-01-26")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotes_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SetNote(ctx, "26-01-2026", "x", nil)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.SetNote(ctx, "2026-01-26", "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidNote)

	_, err = s.SetNote(ctx, "2026-01-26", strings.Repeat("a", MaxNoteLength+1), nil)
	assert.ErrorIs(t, err, ErrInvalidNote)

	_, err = s.SetNote(ctx, "2026-01-26", strings.Repeat("é", MaxNoteLength), nil)
	assert.NoError(t, err)

	_, err = s.GetNote(ctx, "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestSchedules_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSchedule(ctx, 2026, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	note := "Republic Day"
	result := &models.ScheduleResult{
		Persons: []string{"A", "B"},
		Tasks:   []string{"T"},
		Days: []models.DayAssignment{
			{Date: "2026-01-26", DayName: "Monday", Assignments: map[string]string{"T": "A"}, Note: &note},
		},
	}
	require.NoError(t, s.SaveSchedule(ctx, 2026, 1, result))

	result.Persons = []string{"B", "A"}
	require.NoError(t, s.SaveSchedule(ctx, 2026, 1, result))

	got, err := s.GetSchedule(ctx, 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, got.Persons)
	require.Len(t, got.Days, 1)
	assert.Equal(t, "A", got.Days[0].Assignments["T"])
	assert.Equal(t, "Republic Day", *got.Days[0].Note)

	_, err = s.GetSchedule(ctx, 2026, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "ben@example.com", "Ben", "hash", false, false)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = s.CreateUser(ctx, "BEN@example.com ", "Ben 2", "hash", false, false)
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = s.CreateUser(ctx, "admin@example.com", "Admin", "hash", true, true)
	require.NoError(t, err)

	accessible, err := s.AccessibleUsers(ctx)
	require.NoError(t, err)
	require.Len(t, accessible, 1)
	assert.Equal(t, "admin@example.com", accessible[0].Email)

	updated, err := s.SetUserAccess(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.HasAccess)

	accessible, err = s.AccessibleUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, accessible, 2)

	_, err = s.SetUserAccess(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdatePassword(ctx, "Ben@Example.com", "newhash"))
	got, err := s.UserByEmail(ctx, "ben@example.com")
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
}

func TestKeysAndUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UseKey(ctx, "kiosk.abcdef0123456789")
	assert.ErrorIs(t, err, ErrNotFound)

	k, err := s.CreateKey(ctx, "kiosk.abcdef0123456789", "kiosk", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRateLimit, k.RateLimit)
	assert.Equal(t, "kio...6789", k.KeyPreview)

	_, err = s.CreateKey(ctx, "kiosk.abcdef0123456789", "kiosk", 5)
	assert.ErrorIs(t, err, ErrKeyExists)

	used, err := s.UseKey(ctx, "kiosk.abcdef0123456789")
	require.NoError(t, err)
	assert.Equal(t, k.ID, used.ID)
	assert.NotNil(t, used.LastUsed)

	require.NoError(t, s.RecordUsage(ctx, k.ID, 31, 69))
	require.NoError(t, s.RecordUsage(ctx, k.ID, 1, 3))

	usage, err := s.UsageForKey(ctx, k.ID)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 2, usage[0].RequestCount)
	assert.Equal(t, 32, usage[0].TotalDays)
	assert.Equal(t, 72, usage[0].TotalAssignments)

	n, err := s.RequestsToday(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.UpdateKeyLimit(ctx, k.ID, 50))
	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, 50, keys[0].RateLimit)

	require.NoError(t, s.RevokeKey(ctx, k.ID))
	assert.ErrorIs(t, s.RevokeKey(ctx, k.ID), ErrNotFound)

	_, err = s.UseKey(ctx, "kiosk.abcdef0123456789")
	assert.ErrorIs(t, err, ErrNotFound)
	keys, err = s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUsageDay_IsUTC(t *testing.T) {
	assert.Equal(t, time.Now().UTC().Format(models.DateLayout), usageDay())
}

func TestCleanNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CleanNames([]string{" a ", "", "  ", "b"}))
	assert.Empty(t, CleanNames(nil))
}
