// Package notify delivers reminder notifications.
package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/domain"
)

const (
	previewRunes = 100
	defaultBody  = "You have a note reminder"
)

// Notifier delivers the reminder of one note
type Notifier interface {
	Notify(ctx context.Context, note domain.Note) error
}

// Message is the user-facing content of a reminder
type Message struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Tag    string `json:"tag"`
	NoteID string `json:"noteId"`
	Owner  string `json:"ownerId"`
}

// BuildMessage renders the reminder for note
func BuildMessage(note domain.Note) Message {
	title := "Note"
	if note.Title != nil && strings.TrimSpace(*note.Title) != "" {
		title = *note.Title
	}

	body := defaultBody
	switch {
	case note.Summary != nil && strings.TrimSpace(*note.Summary) != "":
		body = *note.Summary
	case strings.TrimSpace(note.CleanedContent) != "":
		body = truncate(note.CleanedContent, previewRunes)
	}

	return Message{
		Title:  "Reminder: " + title,
		Body:   body,
		Tag:    note.ID,
		NoteID: note.ID,
		Owner:  note.OwnerID,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Multi fans a reminder out to several delivery notifiers. It fails only
// when every notifier fails.
type Multi []Notifier

// Compose returns the notifier the reminder sweep uses. With no delivery
// notifier configured reminders only go to the log; otherwise the log is
// left out so that a reminder counts as delivered only when a real channel
// accepted it.
func Compose(logger *zap.Logger, delivery ...Notifier) Notifier {
	if len(delivery) == 0 {
		return NewLogNotifier(logger)
	}
	return Multi(delivery)
}

func (m Multi) Notify(ctx context.Context, note domain.Note) error {
	if len(m) == 0 {
		return nil
	}
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m) {
		return errors.Join(errs...)
	}
	return nil
}
