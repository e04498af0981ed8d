package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(fakeEnv(nil))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "roomduty.db", cfg.Database.Path)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, 10080*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, "2025-12-01", cfg.ReferenceDate.Format("2006-01-02"))
	assert.Equal(t, "0 8 * * *", cfg.ReminderCron)
	assert.Equal(t, 1, cfg.ReminderDaysAhead)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.CalendarEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(fakeEnv(map[string]string{
		"PORT":                    "9090",
		"DATABASE_URL":            "postgres://u:p@db/roomduty",
		"REFERENCE_DATE":          "2026-01-05",
		"REMINDER_CRON":           "off",
		"SMTP_SERVER":             "smtp.example.com",
		"SMTP_USERNAME":           "bot@example.com",
		"SMTP_PASSWORD":           "pw",
		"GOOGLE_CALENDAR_ID":      "house@group.calendar.google.com",
		"GOOGLE_CREDENTIALS_FILE": "credentials.json",
		"ALLOWED_ORIGINS":         " https://duty.example.com , ",
		"LOG_LEVEL":               "debug",
		"LOG_FORMAT":              "JSON",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://u:p@db/roomduty", cfg.Database.DSN)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), cfg.ReferenceDate)
	assert.Empty(t, cfg.ReminderCron)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "bot@example.com", cfg.SMTP.Sender)
	assert.True(t, cfg.CalendarEnabled())
	assert.Equal(t, []string{"https://duty.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	var buf bytes.Buffer
	cfg.NewLogger(&buf).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"REFERENCE_DATE":      "01/12/2025",
		"REMINDER_CRON":       "every day",
		"JWT_EXPIRE_MINUTES":  "0",
		"SMTP_PORT":           "abc",
		"REMINDER_DAYS_AHEAD": "-1",
		"LOG_LEVEL":           "loud",
		"LOG_FORMAT":          "xml",
	}
	for key, value := range cases {
		_, err := load(fakeEnv(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}
