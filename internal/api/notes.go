package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/analytics"
	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/search"
	"github.com/pbaille/clipnote/internal/triage"
)

// captureRequest carries pasted text or a base64 encoded image
type captureRequest struct {
	Content  string `json:"content"`
	Image    []byte `json:"image,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

func (c captureRequest) input() domain.RawInput {
	if len(c.Image) > 0 {
		mime := c.MimeType
		if mime == "" {
			mime = http.DetectContentType(c.Image)
		}
		return domain.ImageInput(c.Image, mime)
	}
	return domain.TextInput(c.Content)
}

type updateRequest struct {
	Title          *string   `json:"title"`
	Summary        *string   `json:"summary"`
	CleanedContent *string   `json:"cleanedContent"`
	Category       *string   `json:"category"`
	Priority       *string   `json:"priority"`
	Tags           *[]string `json:"tags"`
}

func (u updateRequest) toUpdate() domain.NoteUpdate {
	update := domain.NoteUpdate{
		Title:          u.Title,
		Summary:        u.Summary,
		CleanedContent: u.CleanedContent,
		Tags:           u.Tags,
	}
	if u.Category != nil {
		c := domain.Category(strings.ToLower(strings.TrimSpace(*u.Category)))
		update.Category = &c
	}
	if u.Priority != nil {
		p := domain.Priority(strings.ToLower(strings.TrimSpace(*u.Priority)))
		update.Priority = &p
	}
	return update
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFrom(ctx)

	var (
		notes []*domain.Note
		err   error
	)
	if c := r.URL.Query().Get("category"); c != "" {
		category := domain.Category(strings.ToLower(c))
		if !category.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category: "+c)
			return
		}
		notes, err = s.store.ListNotesByOwnerAndCategory(ctx, owner, category)
	} else {
		notes, err = s.store.ListNotesByOwner(ctx, owner)
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(search.Filter(notes, r.URL.Query().Get("q"))))
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req captureRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	payload, err := s.triager.Triage(ctx, req.input())
	if err != nil {
		if errors.Is(err, triage.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("triage failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id, err := s.store.CreateNote(ctx, ownerFrom(ctx), payload)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("note created",
		zap.String("id", id),
		zap.String("category", string(payload.Category)),
		zap.String("source", string(payload.Source)),
	)

	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		// The note is saved; answer with what was written rather than an
		// error the client would retry into a duplicate.
		s.logger.Warn("reading back created note", zap.String("id", id), zap.Error(err))
		note = payloadNote(id, ownerFrom(ctx), payload)
	}
	writeJSON(w, http.StatusCreated, note)
}

// payloadNote builds the note a payload was saved as, without timestamps
func payloadNote(id, owner string, p domain.NotePayload) *domain.Note {
	n := &domain.Note{
		ID:              id,
		OwnerID:         owner,
		OriginalContent: p.OriginalContent,
		CleanedContent:  p.CleanedContent,
		ContentType:     p.ContentType,
		Tags:            p.Tags,
		Source:          p.Source,
	}
	if p.Category != "" {
		n.Category = &p.Category
	}
	if p.Title != "" {
		n.Title = &p.Title
	}
	if p.Summary != "" {
		n.Summary = &p.Summary
	}
	if p.Priority != "" {
		n.Priority = &p.Priority
	}
	if !p.Metadata.IsZero() {
		n.Metadata = &p.Metadata
	}
	return n
}

// classify returns the triage result without saving it
func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	payload, err := s.triager.Triage(r.Context(), req.input())
	if err != nil {
		if errors.Is(err, triage.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	note, ok := s.ownedNote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	note, ok := s.ownedNote(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	update := req.toUpdate()
	if update.IsEmpty() {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx := r.Context()
	if err := s.store.UpdateNote(ctx, note.ID, update); err != nil {
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

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	note, ok := s.ownedNote(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteNote(r.Context(), note.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotesByOwner(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Generate(notes, s.now()))
}

// ownedNote loads the note named in the URL and checks it belongs to the
// caller. It writes the error response itself.
func (s *Server) ownedNote(w http.ResponseWriter, r *http.Request) (*domain.Note, bool) {
	note, err := s.store.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	if note.OwnerID != ownerFrom(r.Context()) {
		writeError(w, http.StatusForbidden, "permission denied")
		return nil, false
	}
	return note, true
}
