package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/store"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "line one line two", truncate("line one\nline two", 20))
	require.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	require.Equal(t, "ééé...", truncate("éééééééé", 6))
}

func TestParseDue(t *testing.T) {
	fixed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = time.Now })

	due, err := parseDue("", 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, fixed.Add(2*time.Hour), due)

	due, err = parseDue("2024-05-01 09:30", 0)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local), due)

	due, err = parseDue("2024-05-01T09:30:00Z", 0)
	require.NoError(t, err)
	require.True(t, due.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))

	_, err = parseDue("tomorrow", 0)
	require.Error(t, err)
}

func TestFindNote(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	payload := domain.NotePayload{
		OriginalContent: "buy milk",
		CleanedContent:  "buy milk",
		ContentType:     domain.TypeText,
		Source:          domain.SourceFallback,
	}
	id, err := s.CreateNote(ctx, "alice", payload)
	require.NoError(t, err)

	n, err := findNote(ctx, s, "alice", id[:8])
	require.NoError(t, err)
	require.Equal(t, id, n.ID)

	n, err = findNote(ctx, s, "alice", id)
	require.NoError(t, err)
	require.Equal(t, id, n.ID)

	_, err = findNote(ctx, s, "bob", id[:8])
	require.ErrorContains(t, err, "not found")

	// An empty prefix matches every note
	_, err = s.CreateNote(ctx, "alice", payload)
	require.NoError(t, err)
	_, err = findNote(ctx, s, "alice", "")
	require.ErrorContains(t, err, "ambiguous")
}
