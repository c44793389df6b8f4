package api

import (
	"net/http"
	"time"

	"github.com/pbaille/clipnote/internal/domain"
)

type reminderRequest struct {
	Enabled bool       `json:"enabled"`
	DueAt   *time.Time `json:"dueAt"`
}

func (s *Server) setReminder(w http.ResponseWriter, r *http.Request) {
	note, ok := s.ownedNote(w, r)
	if !ok {
		return
	}

	var req reminderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := s.store.SetReminder(ctx, note.ID, req.Enabled, req.DueAt); err != nil {
		s.writeStoreError(w, err)
		return
	}
	updated, err := s.store.GetNote(ctx, note.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// dismissReminder marks the reminder as handled so the sweep skips it
func (s *Server) dismissReminder(w http.ResponseWriter, r *http.Request) {
	note, ok := s.ownedNote(w, r)
	if !ok {
		return
	}
	if err := s.store.MarkNotified(r.Context(), note.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) upcomingReminders(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListUpcomingReminders(r.Context(), ownerFrom(r.Context()), s.now())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

func (s *Server) dueReminders(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListDueUnnotifiedReminders(r.Context(), ownerFrom(r.Context()), s.now())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

func nonNil(notes []*domain.Note) []*domain.Note {
	if notes == nil {
		return []*domain.Note{}
	}
	return notes
}
