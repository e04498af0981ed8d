package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/roomduty/roomduty-api-go/internal/app"
	"github.com/roomduty/roomduty-api-go/pkg/auth"
	"github.com/roomduty/roomduty-api-go/pkg/config"
	"github.com/roomduty/roomduty-api-go/pkg/export"
	"github.com/roomduty/roomduty-api-go/pkg/models"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

var (
	year      int
	month     int
	persons   string
	tasks     string
	reference string
	format    string
	daysAhead int
	register  bool
	rateLimit int
)

var generateFlags = []cli.Flag{
	cli.IntFlag{
		Name:        "year, y",
		Usage:       "calendar year (default: current year)",
		Destination: &year,
	},
	cli.IntFlag{
		Name:        "month, m",
		Usage:       "month 1-12, or 0 for the full year",
		Destination: &month,
	},
	cli.StringFlag{
		Name:        "persons, p",
		Usage:       "comma separated roster (default: saved settings)",
		Destination: &persons,
	},
	cli.StringFlag{
		Name:        "tasks, t",
		Usage:       "comma separated task list (default: saved settings)",
		Destination: &tasks,
	},
	cli.StringFlag{
		Name:        "reference, r",
		Usage:       "rotation reference date, YYYY-MM-DD (default: REFERENCE_DATE)",
		Destination: &reference,
	},
	cli.StringFlag{
		Name:        "format, f",
		Usage:       "output format: table, csv or json",
		Value:       "table",
		Destination: &format,
	},
}

var remindFlags = []cli.Flag{
	cli.IntFlag{
		Name:        "days-ahead, d",
		Usage:       "remind about notes this many days from today",
		Value:       -1,
		Destination: &daysAhead,
	},
}

var keygenFlags = []cli.Flag{
	cli.BoolFlag{
		Name:        "register",
		Usage:       "store the key so the API accepts it (uses DATABASE_URL or DATA_PATH)",
		Destination: &register,
	},
	cli.IntFlag{
		Name:        "rate-limit",
		Usage:       "daily request allowance of a registered key (default: 10000)",
		Destination: &rateLimit,
	},
}

var publishFlags = []cli.Flag{
	cli.IntFlag{
		Name:        "year, y",
		Usage:       "calendar year (default: current year)",
		Destination: &year,
	},
	cli.IntFlag{
		Name:        "month, m",
		Usage:       "month 1-12, or 0 for the full year",
		Destination: &month,
	},
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return store.CleanNames(strings.Split(s, ","))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cli.NewExitError(fmt.Sprintf("invalid configuration: %v", err), 1)
	}
	if reference != "" {
		if cfg.ReferenceDate, err = scheduler.ParseDate(reference); err != nil {
			return nil, cli.NewExitError("reference must be YYYY-MM-DD", 1)
		}
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return cfg, nil
}

// generate builds offline when both lists are given and goes through the stored
// settings, notes and schedules otherwise
func generate(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var result *models.ScheduleResult
	p, t := splitList(persons), splitList(tasks)
	if p != nil && t != nil {
		result, err = scheduler.NewScheduler(cfg.ReferenceDate, nil).Build(year, month, p, t)
	} else {
		result, err = withApp(cfg, func(a *app.App) (*models.ScheduleResult, error) {
			return a.Service.Generate(context.Background(), models.ScheduleRequest{
				Year: year, Month: month, Persons: p, Tasks: t,
			})
		})
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return render(ctx.App.Writer, result, format)
}

func render(w io.Writer, result *models.ScheduleResult, format string) error {
	switch format {
	case "table":
		return export.WriteTable(w, result)
	case "csv":
		return export.WriteCSV(w, result)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return cli.NewExitError(fmt.Sprintf("unknown format: %s", format), 1)
	}
}

func keygen(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" || strings.Contains(name, ".") {
		return cli.NewExitError("usage: dutyctl keygen <name> (name must not contain '.')", 1)
	}
	if rateLimit < 0 {
		return cli.NewExitError("rate-limit must not be negative", 1)
	}
	secret := os.Getenv("API_MASTER_SECRET")
	if secret == "" {
		return cli.NewExitError("API_MASTER_SECRET not set", 1)
	}
	key := auth.GenerateHMACKey(secret, name)

	if register {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.New(context.Background(), cfg, cfg.NewLogger(os.Stderr))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer a.Close()
		if _, err := a.Store.CreateKey(context.Background(), key, name, rateLimit); err != nil {
			return cli.NewExitError(fmt.Sprintf("registering key: %v", err), 1)
		}
	}

	fmt.Fprintf(ctx.App.Writer, "Generated Key for %s:\n%s\n", name, key)
	return nil
}

func remind(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(context.Background(), cfg, cfg.NewLogger(os.Stderr))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer a.Close()

	if daysAhead >= 0 {
		a.Reminders.DaysAhead = daysAhead
	}
	summary, err := a.Reminders.RunOnce(context.Background(), time.Now())
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%d reminder(s) sent for %d note(s) on %s\n", summary.Sent, summary.Notes, summary.Date)
	return nil
}

func publish(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.CalendarEnabled() {
		return cli.NewExitError("GOOGLE_CALENDAR_ID and GOOGLE_CREDENTIALS_FILE are required", 1)
	}

	a, err := app.New(context.Background(), cfg, cfg.NewLogger(os.Stderr))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer a.Close()
	if a.Publisher == nil {
		return cli.NewExitError("calendar client could not be created, see log", 1)
	}

	bg := context.Background()
	result, err := a.Service.Generate(bg, models.ScheduleRequest{Year: year, Month: month})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	report, err := a.Publisher.Publish(bg, result, cfg.CalendarTimeZone)
	a.Metrics.EventsPublished(report.Inserted, report.Updated)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%d event(s) inserted, %d updated\n", report.Inserted, report.Updated)
	return nil
}

func withApp(cfg *config.Config, fn func(*app.App) (*models.ScheduleResult, error)) (*models.ScheduleResult, error) {
	a, err := app.New(context.Background(), cfg, cfg.NewLogger(os.Stderr))
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return fn(a)
}
