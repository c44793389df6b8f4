// Package api serves the clipnote HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/store"
)

// NoteStore is the persistence the API needs
type NoteStore interface {
	CreateNote(ctx context.Context, ownerID string, payload domain.NotePayload) (string, error)
	UpdateNote(ctx context.Context, id string, update domain.NoteUpdate) error
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	ListNotesByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error)
	ListNotesByOwnerAndCategory(ctx context.Context, ownerID string, category domain.Category) ([]*domain.Note, error)
	ListDueUnnotifiedReminders(ctx context.Context, ownerID string, now time.Time) ([]*domain.Note, error)
	ListUpcomingReminders(ctx context.Context, ownerID string, now time.Time) ([]*domain.Note, error)
	MarkNotified(ctx context.Context, id string) error
	SetReminder(ctx context.Context, id string, enabled bool, dueAt *time.Time) error
	DeleteNote(ctx context.Context, id string) error
	ListTags(ctx context.Context, ownerID string) ([]store.TagCount, error)
	SavePushSubscription(ctx context.Context, sub store.PushSubscription) (*store.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, ownerID, endpoint string) error
}

// Triager turns raw input into a note payload
type Triager interface {
	Triage(ctx context.Context, raw domain.RawInput) (domain.NotePayload, error)
}

// DefaultMaxBodyBytes bounds request bodies, which may carry base64 images
const DefaultMaxBodyBytes = 10 << 20

// Config wires a Server
type Config struct {
	Addr    string
	Store   NoteStore
	Triager Triager
	Auth    *Authenticator
	// VAPIDPublicKey is empty when web push is disabled
	VAPIDPublicKey string
	Logger         *zap.Logger
	Now            func() time.Time
	MaxBodyBytes   int64
}

// Server handles HTTP requests for the notes API
type Server struct {
	addr     string
	store    NoteStore
	triager  Triager
	auth     *Authenticator
	vapidKey string
	logger   *zap.Logger
	now      func() time.Time
	maxBody  int64
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		addr:     cfg.Addr,
		store:    cfg.Store,
		triager:  cfg.Triager,
		auth:     cfg.Auth,
		vapidKey: cfg.VAPIDPublicKey,
		logger:   cfg.Logger,
		now:      cfg.Now,
		maxBody:  cfg.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.auth == nil {
		s.auth = NewAuthenticator("", "local")
	}
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Post("/classify", s.classify)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.listNotes)
			r.Post("/", s.createNote)
			r.Get("/feed", s.feed)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getNote)
				r.Patch("/", s.updateNote)
				r.Delete("/", s.deleteNote)
				r.Put("/reminder", s.setReminder)
				r.Post("/reminder/dismiss", s.dismissReminder)
			})
		})

		r.Get("/reminders/upcoming", s.upcomingReminders)
		r.Get("/reminders/due", s.dueReminders)
		r.Get("/tags", s.listTags)
		r.Get("/stats", s.stats)

		r.Route("/push", func(r chi.Router) {
			r.Get("/vapid-public-key", s.vapidPublicKey)
			r.Post("/subscribe", s.subscribe)
			r.Delete("/subscribe", s.unsubscribe)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for the browser frontend
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into v. On failure it writes
// the error response and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps store error kinds onto HTTP statuses
func statusFor(err error) int {
	switch store.KindOf(err) {
	case store.KindPermissionDenied:
		return http.StatusForbidden
	case store.KindUnavailable:
		return http.StatusServiceUnavailable
	case store.KindInvalidArgument:
		return http.StatusBadRequest
	case store.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("store error", zap.Error(err))
	}
	writeError(w, status, err.Error())
}
