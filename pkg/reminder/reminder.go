package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/roomduty/roomduty-api-go/pkg/metrics"
	"github.com/roomduty/roomduty-api-go/pkg/models"
	"github.com/roomduty/roomduty-api-go/pkg/scheduler"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

const displayLayout = "January 2, 2006"

// Summary describes one reminder pass
type Summary struct {
	Date  string `json:"reminder_date"`
	Notes int    `json:"notes"`
	Sent  int    `json:"reminders_sent"`
}

// Job sends reminders for upcoming day notes to every member with access
type Job struct {
	Store     *store.Store
	Notifier  Notifier
	DaysAhead int
	// Cron is a 5-field expression; empty disables Run
	Cron    string
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

func (j *Job) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

// RunOnce sends reminders for the notes on now + DaysAhead
func (j *Job) RunOnce(ctx context.Context, now time.Time) (Summary, error) {
	return j.SendFor(ctx, scheduler.Date(now).AddDate(0, 0, j.DaysAhead))
}

// SendFor sends one reminder per note on date to each member with access.
// Delivery errors are logged per recipient and do not stop the pass.
func (j *Job) SendFor(ctx context.Context, date time.Time) (Summary, error) {
	summary := Summary{Date: date.Format(models.DateLayout)}

	notes, err := j.Store.NotesOn(ctx, summary.Date)
	if err != nil {
		return summary, err
	}
	summary.Notes = len(notes)
	if len(notes) == 0 {
		return summary, nil
	}

	users, err := j.Store.AccessibleUsers(ctx)
	if err != nil {
		return summary, err
	}

	for _, note := range notes {
		subject := "Reminder: Special Day - " + date.Format(displayLayout)
		for _, u := range users {
			msg := Message{
				To:      u.Email,
				Name:    u.DisplayName,
				Subject: subject,
				Body:    reminderBody(u.DisplayName, date, note),
			}
			if err := j.Notifier.Notify(ctx, msg); err != nil {
				j.logger().Warn("reminder not delivered", "to", u.Email, "date", summary.Date, "error", err)
				continue
			}
			summary.Sent++
		}
	}

	j.Metrics.RemindersSent(summary.Sent)
	j.logger().Info("reminders sent", "date", summary.Date, "notes", summary.Notes, "sent", summary.Sent)
	return summary, nil
}

// AnnounceNote tells every member with access that a note was saved. It returns the number delivered.
func (j *Job) AnnounceNote(ctx context.Context, note models.DayNote) (int, error) {
	date, err := scheduler.ParseDate(note.Date)
	if err != nil {
		return 0, err
	}
	users, err := j.Store.AccessibleUsers(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		msg := Message{
			To:      u.Email,
			Name:    u.DisplayName,
			Subject: "Special Day: " + date.Format(displayLayout),
			Body:    announceBody(u.DisplayName, date, note),
		}
		if err := j.Notifier.Notify(ctx, msg); err != nil {
			j.logger().Warn("note announcement not delivered", "to", u.Email, "date", note.Date, "error", err)
			continue
		}
		sent++
	}
	j.Metrics.RemindersSent(sent)
	return sent, nil
}

// Run sends reminders on every tick of Cron until ctx is cancelled
func (j *Job) Run(ctx context.Context) error {
	if j.Cron == "" {
		return nil
	}
	for {
		next, err := gronx.NextTickAfter(j.Cron, time.Now(), false)
		if err != nil {
			return fmt.Errorf("reminder schedule %q: %w", j.Cron, err)
		}
		j.logger().Debug("next reminder pass", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case now := <-timer.C:
			if _, err := j.RunOnce(ctx, now); err != nil {
				j.logger().Error("reminder pass failed", "error", err)
			}
		}
	}
}

func creatorName(note models.DayNote) string {
	if note.CreatorName != nil && *note.CreatorName != "" {
		return *note.CreatorName
	}
	return "A user"
}

func reminderBody(name string, date time.Time, note models.DayNote) string {
	return fmt.Sprintf("Hello %s,\n\nThis is a reminder that there's a special day coming up on %s, %s.\n\nNote: %s\nCreated by: %s\n\nDon't forget to check the schedule!\n",
		name, date.Weekday(), date.Format(displayLayout), note.Note, creatorName(note))
}

func announceBody(name string, date time.Time, note models.DayNote) string {
	return fmt.Sprintf("Hello %s,\n\nA note was added for %s, %s.\n\nNote: %s\nCreated by: %s\n",
		name, date.Weekday(), date.Format(displayLayout), note.Note, creatorName(note))
}
