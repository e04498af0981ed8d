// Package app wires configuration into the running components shared by the
// server, the serverless entrypoint and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/roomduty/roomduty-api-go/pkg/auth"
	"github.com/roomduty/roomduty-api-go/pkg/config"
	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/gcal"
	"github.com/roomduty/roomduty-api-go/pkg/handlers"
	"github.com/roomduty/roomduty-api-go/pkg/metrics"
	"github.com/roomduty/roomduty-api-go/pkg/reminder"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
	"github.com/roomduty/roomduty-api-go/pkg/service"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

// App holds the wired components
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *gorm.DB
	Store     *store.Store
	Metrics   *metrics.Collector
	Service   *service.ScheduleService
	Reminders *reminder.Job
	Publisher *gcal.Publisher

	handler *handlers.Handler
}

// New opens the database, bootstraps the admin account and builds every component.
// Calendar publishing is wired only when configured; a broken calendar setup is logged, not fatal.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	st := store.New(db)

	err = auth.EnsureAdminExists(ctx, st, auth.AdminAccount{
		Email:       cfg.AdminEmail,
		Password:    cfg.AdminPassword,
		DisplayName: cfg.AdminName,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrapping admin: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "roomduty")

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Store:   st,
		Metrics: m,
		Service: service.New(st, scheduler.NewScheduler(cfg.ReferenceDate, nil), m, logger),
	}

	var notifier reminder.Notifier = reminder.LogNotifier{Logger: logger}
	if cfg.SMTP.Enabled() {
		notifier = reminder.NewSMTPNotifier(cfg.SMTP)
	}
	a.Reminders = &reminder.Job{
		Store:     st,
		Notifier:  notifier,
		DaysAhead: cfg.ReminderDaysAhead,
		Cron:      cfg.ReminderCron,
		Logger:    logger,
		Metrics:   m,
	}

	if cfg.CalendarEnabled() {
		srv, err := gcal.NewService(ctx, cfg.CredentialsFile, cfg.TokenFile)
		if err != nil {
			logger.Warn("calendar publishing disabled", "error", err)
		} else {
			a.Publisher = gcal.NewPublisher(srv, cfg.CalendarID)
		}
	}
	return a, nil
}

// Handler builds the HTTP handler set
func (a *App) Handler() *handlers.Handler {
	return &handlers.Handler{
		Store:           a.Store,
		Service:         a.Service,
		Tokens:          auth.NewTokenIssuer(a.Config.JWTSecret, a.Config.JWTExpiry),
		APIMasterSecret: a.Config.APIMasterSecret,
		Reminders:       a.Reminders,
		Publisher:       a.Publisher,
		TimeZone:        a.Config.CalendarTimeZone,
		Metrics:         a.Metrics,
		Logger:          a.Logger,
	}
}

// Router builds the gin engine
func (a *App) Router() (*gin.Engine, error) {
	a.handler = a.Handler()
	return handlers.NewRouter(a.handler, a.Config.AllowedOrigins)
}

// Close waits for pending note announcements and releases the database connection
func (a *App) Close() error {
	if a.handler != nil {
		a.handler.Wait()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
