package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/feeds"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/search"
)

const maxFeedItems = 50

// feed renders the caller's most recent notes as an Atom feed
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFrom(ctx)

	notes, err := s.store.ListNotesByOwner(ctx, owner)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	notes = search.Filter(notes, r.URL.Query().Get("q"))
	if len(notes) > maxFeedItems {
		notes = notes[:maxFeedItems]
	}

	base := baseURL(r)
	feed := &feeds.Feed{
		Title:       "clipnote",
		Link:        &feeds.Link{Href: base + "/api/notes"},
		Description: "Notes captured by " + owner,
		Author:      &feeds.Author{Name: owner},
		Id:          base + "/api/notes/feed",
		Created:     s.now(),
	}
	if len(notes) > 0 {
		feed.Updated = notes[0].UpdatedAt
	}

	for _, n := range notes {
		feed.Items = append(feed.Items, feedItem(base, n))
	}

	atom, err := feed.ToAtom()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, atom)
}

func feedItem(base string, n *domain.Note) *feeds.Item {
	item := &feeds.Item{
		Id:      "urn:clipnote:" + n.ID,
		Title:   n.DisplayTitle(),
		Link:    &feeds.Link{Href: base + "/api/notes/" + n.ID},
		Content: n.CleanedContent,
		Created: n.CreatedAt,
		Updated: n.UpdatedAt,
	}
	if n.Summary != nil {
		item.Description = *n.Summary
	}
	if n.ContentType == domain.TypeURL {
		item.Link = &feeds.Link{Href: strings.TrimSpace(n.OriginalContent)}
	}
	return item
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
