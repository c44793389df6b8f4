// Package search filters notes with a case-insensitive substring scan.
package search

import (
	"strings"

	"github.com/pbaille/clipnote/internal/domain"
)

// Filter returns the notes matching term, keeping their order. A blank
// term matches everything.
func Filter(notes []*domain.Note, term string) []*domain.Note {
	if strings.TrimSpace(term) == "" {
		return notes
	}

	needle := strings.ToLower(term)
	matched := make([]*domain.Note, 0, len(notes))
	for _, n := range notes {
		if Matches(n, needle) {
			matched = append(matched, n)
		}
	}
	return matched
}

// Matches reports whether any searchable field of n contains the already
// lower-cased needle
func Matches(n *domain.Note, needle string) bool {
	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}

	if n.Title != nil && contains(*n.Title) {
		return true
	}
	if n.Summary != nil && contains(*n.Summary) {
		return true
	}
	if contains(n.CleanedContent) || contains(n.OriginalContent) {
		return true
	}
	if n.Category != nil && contains(string(*n.Category)) {
		return true
	}
	for _, tag := range n.Tags {
		if contains(tag) {
			return true
		}
	}
	return false
}
