package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/notify"
	"github.com/pbaille/clipnote/internal/store"
)

type recordingNotifier struct {
	mu     sync.Mutex
	failOn map[string]bool
	sent   []string
}

func (r *recordingNotifier) Notify(_ context.Context, note domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[note.ID] {
		return errors.New("push service down")
	}
	r.sent = append(r.sent, note.ID)
	return nil
}

func (r *recordingNotifier) sentIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "clipnote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addReminder(t *testing.T, s *store.Store, owner, content string, due time.Time) string {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateNote(ctx, owner, domain.NotePayload{
		OriginalContent: content,
		CleanedContent:  content,
		ContentType:     domain.TypeText,
	})
	require.NoError(t, err)
	require.NoError(t, s.SetReminder(ctx, id, true, &due))
	return id
}

func TestSweepOwner(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	first := addReminder(t, s, "alice", "first", now.Add(-2*time.Minute))
	second := addReminder(t, s, "alice", "second", now.Add(-time.Minute))
	addReminder(t, s, "alice", "later", now.Add(time.Hour))

	notifier := &recordingNotifier{}
	sweeper := &Sweeper{Store: s, Notifier: notifier, Logger: zaptest.NewLogger(t), Now: func() time.Time { return now }}

	res, err := sweeper.SweepOwner(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, Result{Notified: 2}, res)
	require.Equal(t, []string{first, second}, notifier.sentIDs())

	// Already notified reminders are not sent twice.
	res, err = sweeper.SweepOwner(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, Result{}, res)
	require.Len(t, notifier.sentIDs(), 2)
}

func TestSweepOwnerRetriesFailures(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	failing := addReminder(t, s, "alice", "failing", now.Add(-2*time.Minute))
	ok := addReminder(t, s, "alice", "ok", now.Add(-time.Minute))

	notifier := &recordingNotifier{failOn: map[string]bool{failing: true}}
	sweeper := &Sweeper{Store: s, Notifier: notifier, Now: func() time.Time { return now }}

	res, err := sweeper.SweepOwner(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, Result{Notified: 1, Failed: 1}, res)
	require.Equal(t, []string{ok}, notifier.sentIDs())

	note, err := s.GetNote(ctx, failing)
	require.NoError(t, err)
	require.False(t, note.Reminder.Notified)

	notifier.mu.Lock()
	notifier.failOn = nil
	notifier.mu.Unlock()

	res, err = sweeper.SweepOwner(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, Result{Notified: 1}, res)
	require.Equal(t, []string{ok, failing}, notifier.sentIDs())
}

func TestSweepAll(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	a := addReminder(t, s, "alice", "a", now.Add(-time.Minute))
	b := addReminder(t, s, "bob", "b", now.Add(-time.Minute))
	addReminder(t, s, "carol", "c", now.Add(time.Minute))

	notifier := &recordingNotifier{}
	sweeper := &Sweeper{Store: s, Notifier: notifier, Now: func() time.Time { return now }}

	res, err := sweeper.SweepAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Notified)
	require.ElementsMatch(t, []string{a, b}, notifier.sentIDs())
}

type failingStore struct {
	Store
}

func (failingStore) ListReminderOwners(context.Context, time.Time) ([]string, error) {
	return nil, errors.New("database is locked")
}

func TestSweepAllStoreError(t *testing.T) {
	sweeper := &Sweeper{Store: failingStore{}, Notifier: &recordingNotifier{}}
	_, err := sweeper.SweepAll(context.Background())
	require.ErrorContains(t, err, "database is locked")
}

func TestSweepWithComposedNotifierKeepsFailedUnnotified(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()
	id := addReminder(t, s, "alice", "dentist", now.Add(-time.Minute))

	push := &recordingNotifier{failOn: map[string]bool{id: true}}
	sweeper := &Sweeper{
		Store:    s,
		Notifier: notify.Compose(zaptest.NewLogger(t), push),
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return now },
	}

	res, err := sweeper.SweepAll(ctx)
	require.NoError(t, err)
	require.Equal(t, Result{Failed: 1}, res)

	note, err := s.GetNote(ctx, id)
	require.NoError(t, err)
	require.False(t, note.Reminder.Notified)

	due, err := s.ListDueUnnotifiedReminders(ctx, "alice", now)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

// ownerFailingStore fails listing for a single owner
type ownerFailingStore struct {
	*store.Store
	failOwner string
}

func (f ownerFailingStore) ListDueUnnotifiedReminders(ctx context.Context, ownerID string, now time.Time) ([]*domain.Note, error) {
	if ownerID == f.failOwner {
		return nil, errors.New("disk I/O error")
	}
	return f.Store.ListDueUnnotifiedReminders(ctx, ownerID, now)
}

func TestSweepAllContinuesAfterOwnerError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	addReminder(t, s, "alice", "a", now.Add(-time.Minute))
	b := addReminder(t, s, "bob", "b", now.Add(-time.Minute))
	c := addReminder(t, s, "carol", "c", now.Add(-time.Minute))

	notifier := &recordingNotifier{}
	sweeper := &Sweeper{
		Store:    ownerFailingStore{Store: s, failOwner: "alice"},
		Notifier: notifier,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return now },
	}

	res, err := sweeper.SweepAll(ctx)
	require.ErrorContains(t, err, "owner alice")
	require.ErrorContains(t, err, "disk I/O error")
	require.Equal(t, 2, res.Notified)
	require.ElementsMatch(t, []string{b, c}, notifier.sentIDs())
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newStore(t)
	id := addReminder(t, s, "alice", "a", time.Now().Add(-time.Minute))

	notifier := &recordingNotifier{}
	sweeper := &Sweeper{Store: s, Notifier: notifier, Interval: 10 * time.Millisecond, Logger: zaptest.NewLogger(t)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(notifier.sentIDs()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	require.Equal(t, []string{id}, notifier.sentIDs())
}
