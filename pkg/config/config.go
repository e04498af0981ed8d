package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"

	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
)

// Config holds every setting read from the environment
type Config struct {
	Port    string
	GinMode string

	Database database.Config

	JWTSecret       string
	JWTExpiry       time.Duration
	APIMasterSecret string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	AllowedOrigins []string
	ReferenceDate  time.Time

	ReminderCron      string
	ReminderDaysAhead int

	SMTP SMTPConfig

	CalendarID       string
	CalendarTimeZone string
	CredentialsFile  string
	TokenFile        string

	LogLevel  slog.Level
	LogFormat string
}

// SMTPConfig describes the outgoing mail server. Empty Server disables email.
type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Sender   string
}

// Enabled reports whether email delivery is configured
func (c SMTPConfig) Enabled() bool {
	return c.Server != "" && c.Username != "" && c.Password != ""
}

// CalendarEnabled reports whether Google Calendar publishing is configured
func (c *Config) CalendarEnabled() bool {
	return c.CalendarID != "" && c.CredentialsFile != ""
}

// LoadDotEnv loads the first .env file found in the usual places.
// Missing files are not an error.
func LoadDotEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:    env("PORT", "8000"),
		GinMode: getenv("GIN_MODE"),
		Database: database.Config{
			DSN:  getenv("DATABASE_URL"),
			Path: env("DATA_PATH", "roomduty.db"),
		},
		JWTSecret:        env("JWT_SECRET", "change-this-secret"),
		APIMasterSecret:  env("API_MASTER_SECRET", ""),
		AdminEmail:       env("ADMIN_EMAIL", "admin@roomduty.local"),
		AdminPassword:    env("ADMIN_PASSWORD", "admin123"),
		AdminName:        env("ADMIN_NAME", "Admin"),
		ReminderCron:     env("REMINDER_CRON", "0 8 * * *"),
		CalendarID:       getenv("GOOGLE_CALENDAR_ID"),
		CalendarTimeZone: getenv("GOOGLE_CALENDAR_TIMEZONE"),
		CredentialsFile:  getenv("GOOGLE_CREDENTIALS_FILE"),
		TokenFile:        env("GOOGLE_TOKEN_FILE", "token.json"),
		LogFormat:        strings.ToLower(env("LOG_FORMAT", "text")),
		SMTP: SMTPConfig{
			Server:   env("SMTP_SERVER", ""),
			Username: env("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD"),
		},
	}
	if strings.EqualFold(cfg.ReminderCron, "off") {
		cfg.ReminderCron = ""
	}
	cfg.SMTP.Sender = env("SENDER_EMAIL", cfg.SMTP.Username)

	var err error
	if cfg.JWTExpiry, err = minutes(env("JWT_EXPIRE_MINUTES", "10080")); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRE_MINUTES: %w", err)
	}
	if cfg.SMTP.Port, err = strconv.Atoi(env("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("SMTP_PORT: %w", err)
	}
	if cfg.ReminderDaysAhead, err = strconv.Atoi(env("REMINDER_DAYS_AHEAD", "1")); err != nil {
		return nil, fmt.Errorf("REMINDER_DAYS_AHEAD: %w", err)
	}
	if cfg.ReminderDaysAhead < 0 {
		return nil, fmt.Errorf("REMINDER_DAYS_AHEAD: must not be negative")
	}

	ref := env("REFERENCE_DATE", scheduler.ReferenceDate.Format("2006-01-02"))
	if cfg.ReferenceDate, err = scheduler.ParseDate(ref); err != nil {
		return nil, fmt.Errorf("REFERENCE_DATE: %w", err)
	}

	if cfg.ReminderCron != "" && !gronx.New().IsValid(cfg.ReminderCron) {
		return nil, fmt.Errorf("REMINDER_CRON: invalid cron expression %q", cfg.ReminderCron)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT: must be text or json")
	}

	for _, origin := range strings.Split(env("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// NewLogger builds the process logger
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func minutes(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return time.Duration(n) * time.Minute, nil
}
