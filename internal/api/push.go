package api

import (
	"net/http"
	"strings"

	"github.com/pbaille/clipnote/internal/store"
)

// PushSubscribeRequest is the browser PushSubscription serialized by the
// frontend
type PushSubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) vapidPublicKey(w http.ResponseWriter, r *http.Request) {
	if s.vapidKey == "" {
		writeError(w, http.StatusNotFound, "web push is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": s.vapidKey})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	if s.vapidKey == "" {
		writeError(w, http.StatusNotFound, "web push is not configured")
		return
	}

	var req PushSubscribeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if !strings.HasPrefix(req.Endpoint, "https://") {
		writeError(w, http.StatusBadRequest, "endpoint must be an https URL")
		return
	}

	sub, err := s.store.SavePushSubscription(r.Context(), store.PushSubscription{
		OwnerID:  ownerFrom(r.Context()),
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": sub.ID})
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req pushUnsubscribeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := s.store.DeletePushSubscription(r.Context(), ownerFrom(r.Context()), req.Endpoint); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
