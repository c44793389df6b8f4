package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{in: "work", want: CategoryWork},
		{in: " Travel ", want: CategoryTravel},
		{in: "FINANCE", want: CategoryFinance},
		{in: "recipes", want: CategoryOther},
		{in: "", want: CategoryOther},
	}
	for _, test := range tests {
		require.Equal(t, test.want, ParseCategory(test.in), test.in)
	}
}

func TestParsePriority(t *testing.T) {
	require.Equal(t, PriorityHigh, ParsePriority("high"))
	require.Equal(t, PriorityLow, ParsePriority("LOW"))
	require.Equal(t, PriorityMedium, ParsePriority("urgent"))
	require.Equal(t, PriorityMedium, ParsePriority(""))
}

func TestNoteUpdateIsEmpty(t *testing.T) {
	require.True(t, NoteUpdate{}.IsEmpty())

	title := "x"
	require.False(t, NoteUpdate{Title: &title}.IsEmpty())
}

func TestDisplayTitle(t *testing.T) {
	n := &Note{}
	require.Equal(t, "Untitled Note", n.DisplayTitle())

	title := "Groceries"
	n.Title = &title
	require.Equal(t, "Groceries", n.DisplayTitle())
}
