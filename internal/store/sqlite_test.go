package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pbaille/clipnote/internal/domain"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "clipnote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := &testClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	s.now = clock.now
	return s, clock
}

func samplePayload(content string) domain.NotePayload {
	return domain.NotePayload{
		OriginalContent: content,
		CleanedContent:  content,
		ContentType:     domain.TypeText,
		Category:        domain.CategoryWork,
		Title:           "Job hunt",
		Summary:         "Looking for work.",
		Tags:            []string{"career", "remote", "go"},
		Priority:        domain.PriorityHigh,
		Source:          domain.SourceAI,
	}
}

func TestCreateAndGetNote(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	payload := samplePayload("I need a job")
	payload.Metadata = domain.Metadata{Domain: "example.com"}
	id, err := s.CreateNote(ctx, "alice", payload)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	note, err := s.GetNote(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, note.ID)
	require.Equal(t, "alice", note.OwnerID)
	require.Equal(t, "I need a job", note.OriginalContent)
	require.Equal(t, domain.TypeText, note.ContentType)
	require.Equal(t, domain.CategoryWork, *note.Category)
	require.Equal(t, "Job hunt", *note.Title)
	require.Equal(t, domain.PriorityHigh, *note.Priority)
	require.Equal(t, []string{"career", "remote", "go"}, note.Tags)
	require.Equal(t, &domain.Metadata{Domain: "example.com"}, note.Metadata)
	require.Equal(t, domain.SourceAI, note.Source)
	require.Nil(t, note.Reminder)
	require.True(t, note.CreatedAt.Equal(clock.t))
	require.True(t, note.UpdatedAt.Equal(note.CreatedAt))
}

func TestCreateNoteWithoutDescriptiveFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	id, err := s.CreateNote(ctx, "alice", domain.NotePayload{
		OriginalContent: "blob:sha256:00",
		CleanedContent:  "blob:sha256:00",
		ContentType:     domain.TypeImage,
		Source:          domain.SourceImage,
	})
	require.NoError(t, err)

	note, err := s.GetNote(ctx, id)
	require.NoError(t, err)
	require.Nil(t, note.Category)
	require.Nil(t, note.Title)
	require.Nil(t, note.Priority)
	require.Nil(t, note.Metadata)
	require.Empty(t, note.Tags)
}

func TestCreateNoteRequiresOwner(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.CreateNote(context.Background(), " ", samplePayload("x"))
	require.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestGetNoteNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetNote(context.Background(), "missing")
	require.True(t, IsNotFound(err))

	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "get note", se.Op)
}

func TestUpdateNotePartial(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	id, err := s.CreateNote(ctx, "alice", samplePayload("I need a job"))
	require.NoError(t, err)

	clock.advance(time.Hour)
	title := "New title"
	require.NoError(t, s.UpdateNote(ctx, id, domain.NoteUpdate{Title: &title}))

	note, err := s.GetNote(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "New title", *note.Title)
	require.Equal(t, "Looking for work.", *note.Summary)
	require.Equal(t, domain.CategoryWork, *note.Category)
	require.Equal(t, domain.PriorityHigh, *note.Priority)
	require.Equal(t, []string{"career", "remote", "go"}, note.Tags)
	require.Equal(t, "I need a job", note.CleanedContent)
	require.True(t, note.UpdatedAt.Equal(clock.t))
	require.True(t, note.UpdatedAt.After(note.CreatedAt))

	tags := []string{"b", "a"}
	category := domain.CategoryIdeas
	require.NoError(t, s.UpdateNote(ctx, id, domain.NoteUpdate{Tags: &tags, Category: &category}))

	note, err = s.GetNote(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, note.Tags)
	require.Equal(t, domain.CategoryIdeas, *note.Category)
	require.Equal(t, "New title", *note.Title)
}

func TestUpdateNoteKeepsUpdatedAfterCreated(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	id, err := s.CreateNote(ctx, "alice", samplePayload("x"))
	require.NoError(t, err)

	clock.advance(-time.Hour)
	require.NoError(t, s.UpdateNote(ctx, id, domain.NoteUpdate{}))

	note, err := s.GetNote(ctx, id)
	require.NoError(t, err)
	require.False(t, note.UpdatedAt.Before(note.CreatedAt))
}

func TestUpdateNoteErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	title := "x"
	err := s.UpdateNote(ctx, "missing", domain.NoteUpdate{Title: &title})
	require.True(t, IsNotFound(err))

	id, err := s.CreateNote(ctx, "alice", samplePayload("x"))
	require.NoError(t, err)

	bad := domain.Category("recipes")
	err = s.UpdateNote(ctx, id, domain.NoteUpdate{Category: &bad})
	require.Equal(t, KindInvalidArgument, KindOf(err))

	badPriority := domain.Priority("urgent")
	err = s.UpdateNote(ctx, id, domain.NoteUpdate{Priority: &badPriority})
	require.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestListNotesByOwner(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	first, err := s.CreateNote(ctx, "alice", samplePayload("first"))
	require.NoError(t, err)
	clock.advance(time.Minute)

	other := samplePayload("second")
	other.Category = domain.CategoryShopping
	second, err := s.CreateNote(ctx, "alice", other)
	require.NoError(t, err)
	clock.advance(time.Minute)

	_, err = s.CreateNote(ctx, "bob", samplePayload("bob's"))
	require.NoError(t, err)

	notes, err := s.ListNotesByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, second, notes[0].ID)
	require.Equal(t, first, notes[1].ID)
	require.Equal(t, []string{"career", "remote", "go"}, notes[1].Tags)

	notes, err = s.ListNotesByOwnerAndCategory(ctx, "alice", domain.CategoryShopping)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, second, notes[0].ID)

	notes, err = s.ListNotesByOwner(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, notes)
}

func TestReminders(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)
	now := clock.t

	due, err := s.CreateNote(ctx, "alice", samplePayload("due"))
	require.NoError(t, err)
	later, err := s.CreateNote(ctx, "alice", samplePayload("later"))
	require.NoError(t, err)
	disabled, err := s.CreateNote(ctx, "alice", samplePayload("disabled"))
	require.NoError(t, err)
	bobs, err := s.CreateNote(ctx, "bob", samplePayload("bob"))
	require.NoError(t, err)

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	require.NoError(t, s.SetReminder(ctx, due, true, &past))
	require.NoError(t, s.SetReminder(ctx, later, true, &future))
	require.NoError(t, s.SetReminder(ctx, disabled, false, &past))
	require.NoError(t, s.SetReminder(ctx, bobs, true, &now))

	dueNotes, err := s.ListDueUnnotifiedReminders(ctx, "alice", now)
	require.NoError(t, err)
	require.Len(t, dueNotes, 1)
	require.Equal(t, due, dueNotes[0].ID)
	require.Equal(t, &domain.Reminder{Enabled: true, DueAt: &past, Notified: false}, dueNotes[0].Reminder)

	upcoming, err := s.ListUpcomingReminders(ctx, "alice", now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.Equal(t, later, upcoming[0].ID)

	owners, err := s.ListReminderOwners(ctx, now)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, owners)

	require.NoError(t, s.MarkNotified(ctx, due))
	require.NoError(t, s.MarkNotified(ctx, due))

	note, err := s.GetNote(ctx, due)
	require.NoError(t, err)
	require.True(t, note.Reminder.Notified)

	dueNotes, err = s.ListDueUnnotifiedReminders(ctx, "alice", now)
	require.NoError(t, err)
	require.Empty(t, dueNotes)

	// A new reminder starts unnotified again.
	require.NoError(t, s.SetReminder(ctx, due, true, &past))
	dueNotes, err = s.ListDueUnnotifiedReminders(ctx, "alice", now)
	require.NoError(t, err)
	require.Len(t, dueNotes, 1)
}

func TestSetReminderErrors(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t)

	err := s.SetReminder(ctx, "missing", true, &clock.t)
	require.True(t, IsNotFound(err))

	id, err := s.CreateNote(ctx, "alice", samplePayload("x"))
	require.NoError(t, err)
	err = s.SetReminder(ctx, id, true, nil)
	require.Equal(t, KindInvalidArgument, KindOf(err))

	require.True(t, IsNotFound(s.MarkNotified(ctx, "missing")))
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	id, err := s.CreateNote(ctx, "alice", samplePayload("x"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteNote(ctx, id))
	_, err = s.GetNote(ctx, id)
	require.True(t, IsNotFound(err))
	require.True(t, IsNotFound(s.DeleteNote(ctx, id)))

	tags, err := s.ListTags(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestListTags(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a := samplePayload("a")
	a.Tags = []string{"go", "career"}
	b := samplePayload("b")
	b.Tags = []string{"go"}
	c := samplePayload("c")
	c.Tags = []string{"other-owner"}

	for _, p := range []domain.NotePayload{a, b} {
		_, err := s.CreateNote(ctx, "alice", p)
		require.NoError(t, err)
	}
	_, err := s.CreateNote(ctx, "bob", c)
	require.NoError(t, err)

	tags, err := s.ListTags(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []TagCount{{Name: "go", Count: 2}, {Name: "career", Count: 1}}, tags)
}

func TestPushSubscriptions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	sub, err := s.SavePushSubscription(ctx, PushSubscription{
		OwnerID: "alice", Endpoint: "https://push.example/1", P256dh: "key", Auth: "auth",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)

	again, err := s.SavePushSubscription(ctx, PushSubscription{
		OwnerID: "alice", Endpoint: "https://push.example/1", P256dh: "key2", Auth: "auth2",
	})
	require.NoError(t, err)
	require.Equal(t, sub.ID, again.ID)

	subs, err := s.ListPushSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "key2", subs[0].P256dh)

	_, err = s.SavePushSubscription(ctx, PushSubscription{
		OwnerID: "mallory", Endpoint: "https://push.example/1", P256dh: "evil", Auth: "evil",
	})
	require.Equal(t, KindPermissionDenied, KindOf(err))
	require.NoError(t, s.DeletePushSubscription(ctx, "mallory", "https://push.example/1"))

	subs, err = s.ListPushSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "key2", subs[0].P256dh)
	mallory, err := s.ListPushSubscriptions(ctx, "mallory")
	require.NoError(t, err)
	require.Empty(t, mallory)

	require.NoError(t, s.DeletePushSubscription(ctx, "alice", "https://push.example/1"))
	require.NoError(t, s.DeletePushSubscription(ctx, "alice", "https://push.example/1"))

	subs, err = s.ListPushSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, subs)

	_, err = s.SavePushSubscription(ctx, PushSubscription{OwnerID: "alice"})
	require.Equal(t, KindInvalidArgument, KindOf(err))
}
