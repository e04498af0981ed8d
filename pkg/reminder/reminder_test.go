package reminder

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomduty/roomduty-api-go/pkg/config"
	"github.com/roomduty/roomduty-api-go/pkg/database"
	"github.com/roomduty/roomduty-api-go/pkg/store"
)

type recorder struct {
	mu       sync.Mutex
	messages []Message
	failFor  string
}

func (r *recorder) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.To == r.failFor {
		return errors.New("mailbox full")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store.New(db)
}

func seedUsers(t *testing.T, st *store.Store) *string {
	t.Helper()
	ctx := context.Background()
	asha, err := st.CreateUser(ctx, "asha@example.com", "Asha", "x", false, true)
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, "ben@example.com", "Ben", "x", true, false)
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, "pending@example.com", "Pending", "x", false, false)
	require.NoError(t, err)
	return &asha.ID
}

func TestRunOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	creator := seedUsers(t, st)

	_, err := st.SetNote(ctx, "2025-12-02", "Plumber at 10", creator)
	require.NoError(t, err)

	rec := &recorder{}
	job := &Job{Store: st, Notifier: rec, DaysAhead: 1}

	summary, err := job.RunOnce(ctx, time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Summary{Date: "2025-12-02", Notes: 1, Sent: 2}, summary)

	require.Len(t, rec.messages, 2)
	for _, m := range rec.messages {
		assert.NotEqual(t, "pending@example.com", m.To)
		assert.Equal(t, "Reminder: Special Day - December 2, 2025", m.Subject)
		assert.Contains(t, m.Body, "Plumber at 10")
		assert.Contains(t, m.Body, "Created by: Asha")
		assert.Contains(t, m.Body, "Tuesday")
	}
}

func TestRunOnce_NoNotes(t *testing.T) {
	st := newTestStore(t)
	seedUsers(t, st)
	rec := &recorder{}
	job := &Job{Store: st, Notifier: rec, DaysAhead: 3}

	summary, err := job.RunOnce(context.Background(), time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Summary{Date: "2025-12-04"}, summary)
	assert.Empty(t, rec.messages)
}

func TestSendFor_DeliveryErrorsDoNotAbort(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedUsers(t, st)
	_, err := st.SetNote(ctx, "2025-12-24", "Party", nil)
	require.NoError(t, err)

	rec := &recorder{failFor: "asha@example.com"}
	job := &Job{Store: st, Notifier: rec}

	summary, err := job.SendFor(ctx, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, rec.messages, 1)
	assert.Equal(t, "ben@example.com", rec.messages[0].To)
	assert.Contains(t, rec.messages[0].Body, "Created by: A user")
}

func TestAnnounceNote(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	creator := seedUsers(t, st)
	note, err := st.SetNote(ctx, "2026-01-01", "New year", creator)
	require.NoError(t, err)

	rec := &recorder{}
	job := &Job{Store: st, Notifier: rec}
	sent, err := job.AnnounceNote(ctx, note)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, "Special Day: January 1, 2026", rec.messages[0].Subject)
}

func TestRun_DisabledAndCancelled(t *testing.T) {
	job := &Job{Notifier: &recorder{}}
	assert.NoError(t, job.Run(context.Background()))

	job.Cron = "0 8 * * *"
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSMTPNotifier(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := NewSMTPNotifier(config.SMTPConfig{
		Server:   "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "pw",
		Sender:   "duty@example.com",
	})
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := n.Notify(context.Background(), Message{To: "asha@example.com", Subject: "Hi", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "duty@example.com", gotFrom)
	assert.Equal(t, []string{"asha@example.com"}, gotTo)
	assert.True(t, strings.HasSuffix(string(gotMsg), "line1\r\nline2"))
	assert.Contains(t, string(gotMsg), "Subject: Hi\r\n")

	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.Error(t, n.Notify(context.Background(), Message{To: "x@example.com"}))
}
