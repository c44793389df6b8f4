package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pbaille/clipnote/internal/domain"
)

const noteColumns = `
	id, owner_id, original_content, cleaned_content, content_type,
	category, title, summary, priority, metadata, source,
	reminder_enabled, reminder_due_at, reminder_notified,
	created_at, updated_at`

// TagCount is a tag and how many notes of one owner carry it
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CreateNote stores a triaged payload for ownerID and returns the new ID
func (s *Store) CreateNote(ctx context.Context, ownerID string, payload domain.NotePayload) (string, error) {
	const op = "create note"
	if strings.TrimSpace(ownerID) == "" {
		return "", invalidArgument(op, errors.New("owner is required"))
	}

	metadata, err := encodeMetadata(payload.Metadata)
	if err != nil {
		return "", invalidArgument(op, err)
	}

	id := newID()
	now := toMillis(s.now())

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notes (
				id, owner_id, original_content, cleaned_content, content_type,
				category, title, summary, priority, metadata, source,
				created_at, updated_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, ownerID, payload.OriginalContent, payload.CleanedContent, string(payload.ContentType),
			nullString(string(payload.Category)), nullString(payload.Title), nullString(payload.Summary),
			nullString(string(payload.Priority)), metadata, string(payload.Source),
			now, now,
		)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return replaceTags(ctx, tx, id, payload.Tags)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateNote applies the non-nil fields of update and bumps updated_at.
// Fields left nil are never written.
func (s *Store) UpdateNote(ctx context.Context, id string, update domain.NoteUpdate) error {
	const op = "update note"

	set, args := []string{"updated_at = MAX(created_at, ?)"}, []any{toMillis(s.now())}
	if v := update.CleanedContent; v != nil {
		set, args = append(set, "cleaned_content = ?"), append(args, *v)
	}
	if v := update.Category; v != nil {
		if !v.Valid() {
			return invalidArgument(op, fmt.Errorf("invalid category %q", *v))
		}
		set, args = append(set, "category = ?"), append(args, string(*v))
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = ?"), append(args, *v)
	}
	if v := update.Summary; v != nil {
		set, args = append(set, "summary = ?"), append(args, *v)
	}
	if v := update.Priority; v != nil {
		if !v.Valid() {
			return invalidArgument(op, fmt.Errorf("invalid priority %q", *v))
		}
		set, args = append(set, "priority = ?"), append(args, string(*v))
	}
	args = append(args, id)

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE notes SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return err
		}
		if err := expectRow(result, op, "note"); err != nil {
			return err
		}
		if update.Tags != nil {
			return replaceTags(ctx, tx, id, *update.Tags)
		}
		return nil
	})
}

// GetNote returns one note by ID
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	const op = "get note"
	var note *domain.Note
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		notes, err := queryNotes(ctx, tx, `WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			return notFound(op, "note")
		}
		note = notes[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListNotesByOwner returns every note of ownerID, newest first
func (s *Store) ListNotesByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	return s.listNotes(ctx, "list notes", `WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
}

// ListNotesByOwnerAndCategory returns the notes of ownerID in one category,
// newest first
func (s *Store) ListNotesByOwnerAndCategory(ctx context.Context, ownerID string, category domain.Category) ([]*domain.Note, error) {
	return s.listNotes(ctx, "list notes by category",
		`WHERE owner_id = ? AND category = ? ORDER BY created_at DESC, rowid DESC`, ownerID, string(category))
}

// ListDueUnnotifiedReminders returns notes of ownerID whose enabled
// reminder is due at or before now and has not fired yet
func (s *Store) ListDueUnnotifiedReminders(ctx context.Context, ownerID string, now time.Time) ([]*domain.Note, error) {
	return s.listNotes(ctx, "list due reminders", `
		WHERE owner_id = ?
		  AND reminder_enabled = 1
		  AND reminder_notified = 0
		  AND reminder_due_at IS NOT NULL
		  AND reminder_due_at <= ?
		ORDER BY reminder_due_at ASC, rowid ASC`, ownerID, toMillis(now))
}

// ListUpcomingReminders returns notes of ownerID with an enabled reminder
// due after now, soonest first
func (s *Store) ListUpcomingReminders(ctx context.Context, ownerID string, now time.Time) ([]*domain.Note, error) {
	return s.listNotes(ctx, "list upcoming reminders", `
		WHERE owner_id = ?
		  AND reminder_enabled = 1
		  AND reminder_due_at > ?
		ORDER BY reminder_due_at ASC, rowid ASC`, ownerID, toMillis(now))
}

// ListReminderOwners returns the owners that have at least one due,
// unnotified reminder
func (s *Store) ListReminderOwners(ctx context.Context, now time.Time) ([]string, error) {
	const op = "list reminder owners"
	var owners []string
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT DISTINCT owner_id FROM notes
			WHERE reminder_enabled = 1
			  AND reminder_notified = 0
			  AND reminder_due_at IS NOT NULL
			  AND reminder_due_at <= ?
			ORDER BY owner_id`, toMillis(now))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var owner string
			if err := rows.Scan(&owner); err != nil {
				return err
			}
			owners = append(owners, owner)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return owners, nil
}

// MarkNotified flags the reminder of a note as delivered. Marking an
// already notified reminder is a no-op.
func (s *Store) MarkNotified(ctx context.Context, id string) error {
	const op = "mark notified"
	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE notes
			SET reminder_notified = 1, updated_at = MAX(created_at, ?)
			WHERE id = ?`, toMillis(s.now()), id)
		if err != nil {
			return err
		}
		return expectRow(result, op, "note")
	})
}

// SetReminder replaces the reminder of a note with a fresh, unnotified one
func (s *Store) SetReminder(ctx context.Context, id string, enabled bool, dueAt *time.Time) error {
	const op = "set reminder"
	if enabled && dueAt == nil {
		return invalidArgument(op, errors.New("an enabled reminder needs a due date"))
	}

	var due any
	if dueAt != nil {
		due = toMillis(*dueAt)
	}

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE notes
			SET reminder_enabled = ?, reminder_due_at = ?, reminder_notified = 0,
			    updated_at = MAX(created_at, ?)
			WHERE id = ?`, enabled, due, toMillis(s.now()), id)
		if err != nil {
			return err
		}
		return expectRow(result, op, "note")
	})
}

// DeleteNote removes a note and its tags
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	const op = "delete note"
	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return expectRow(result, op, "note")
	})
}

// ListTags returns the tags used by ownerID, most used first
func (s *Store) ListTags(ctx context.Context, ownerID string) ([]TagCount, error) {
	const op = "list tags"
	var tags []TagCount
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT t.tag, COUNT(DISTINCT t.note_id) AS n
			FROM note_tags t
			JOIN notes n ON n.id = t.note_id
			WHERE n.owner_id = ?
			GROUP BY t.tag
			ORDER BY n DESC, t.tag ASC`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var tc TagCount
			if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
				return err
			}
			tags = append(tags, tc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Store) listNotes(ctx context.Context, op, clause string, args ...any) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		var err error
		notes, err = queryNotes(ctx, tx, clause, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func queryNotes(ctx context.Context, tx *sql.Tx, clause string, args ...any) ([]*domain.Note, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachTags(ctx, tx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func scanNote(rows *sql.Rows) (*domain.Note, error) {
	var (
		note                                         domain.Note
		contentType, source                          string
		category, title, summary, priority, metadata sql.NullString
		reminderEnabled, reminderDueAt               sql.NullInt64
		reminderNotified                             bool
		createdAt, updatedAt                         int64
	)
	if err := rows.Scan(
		&note.ID, &note.OwnerID, &note.OriginalContent, &note.CleanedContent, &contentType,
		&category, &title, &summary, &priority, &metadata, &source,
		&reminderEnabled, &reminderDueAt, &reminderNotified,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan note: %w", err)
	}

	note.ContentType = domain.ContentType(contentType)
	note.Source = domain.Source(source)
	note.CreatedAt = fromMillis(createdAt)
	note.UpdatedAt = fromMillis(updatedAt)

	if category.Valid {
		c := domain.Category(category.String)
		note.Category = &c
	}
	if title.Valid {
		note.Title = &title.String
	}
	if summary.Valid {
		note.Summary = &summary.String
	}
	if priority.Valid {
		p := domain.Priority(priority.String)
		note.Priority = &p
	}
	if metadata.Valid {
		var m domain.Metadata
		if err := json.Unmarshal([]byte(metadata.String), &m); err != nil {
			return nil, fmt.Errorf("decode metadata of note %s: %w", note.ID, err)
		}
		note.Metadata = &m
	}
	if reminderEnabled.Valid {
		r := &domain.Reminder{Enabled: reminderEnabled.Int64 != 0, Notified: reminderNotified}
		if reminderDueAt.Valid {
			due := fromMillis(reminderDueAt.Int64)
			r.DueAt = &due
		}
		note.Reminder = r
	}
	return &note, nil
}

func attachTags(ctx context.Context, tx *sql.Tx, notes []*domain.Note) error {
	if len(notes) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Note, len(notes))
	args := make([]any, len(notes))
	for i, n := range notes {
		byID[n.ID] = n
		args[i] = n.ID
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT note_id, tag FROM note_tags
		WHERE note_id IN (`+placeholders(len(notes))+`)
		ORDER BY note_id, position`, args...)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID, tag string
		if err := rows.Scan(&noteID, &tag); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if n := byID[noteID]; n != nil {
			n.Tags = append(n.Tags, tag)
		}
	}
	return rows.Err()
}

func replaceTags(ctx context.Context, tx *sql.Tx, noteID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO note_tags (note_id, position, tag) VALUES (?, ?, ?)`,
			noteID, i, tag,
		); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

func expectRow(result sql.Result, op, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(op, what)
	}
	return nil
}

func encodeMetadata(m domain.Metadata) (any, error) {
	if m.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
