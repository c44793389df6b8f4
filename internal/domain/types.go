package domain

import (
	"strings"
	"time"
)

// ContentType is the coarse shape of captured content
type ContentType string

const (
	TypeURL   ContentType = "url"
	TypeCode  ContentType = "code"
	TypeMixed ContentType = "mixed"
	TypeText  ContentType = "text"
	TypeImage ContentType = "image"
)

// Category is the user-facing bucket a note is filed under
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryIdeas    Category = "ideas"
	CategoryLinks    Category = "links"
	CategoryCode     Category = "code"
	CategoryShopping Category = "shopping"
	CategoryHealth   Category = "health"
	CategoryFinance  Category = "finance"
	CategoryTravel   Category = "travel"
	CategoryOther    Category = "other"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryPersonal, CategoryWork, CategoryIdeas, CategoryLinks, CategoryCode,
	CategoryShopping, CategoryHealth, CategoryFinance, CategoryTravel, CategoryOther,
}

// ParseCategory maps s onto the fixed category set, defaulting to other
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Valid reports whether c belongs to the fixed category set
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority is how urgent a note is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps s onto the priority set, defaulting to medium
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Source records which classifier produced a note's descriptive fields
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceImage    Source = "image"
)

// Metadata holds light, type-specific facts about the captured content
type Metadata struct {
	Domain   string `json:"domain,omitempty"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// IsZero reports whether no metadata field is set
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// HeuristicResult is the output of local pattern-based classification
type HeuristicResult struct {
	ContentType ContentType `json:"contentType"`
	Metadata    Metadata    `json:"metadata"`
}

// Classification holds the descriptive fields of a note, fully defaulted
type Classification struct {
	Category       Category `json:"category"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Tags           []string `json:"tags"`
	CleanedContent string   `json:"cleanedContent"`
	Priority       Priority `json:"priority"`
}

// Reminder is the reminder sub-record of a note
type Reminder struct {
	Enabled  bool       `json:"enabled"`
	DueAt    *time.Time `json:"dueAt,omitempty"`
	Notified bool       `json:"notified"`
}

// Note is a persisted, triaged piece of content owned by one user
type Note struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"ownerId"`
	OriginalContent string      `json:"originalContent"`
	CleanedContent  string      `json:"cleanedContent"`
	ContentType     ContentType `json:"contentType"`
	Category        *Category   `json:"category,omitempty"`
	Title           *string     `json:"title,omitempty"`
	Summary         *string     `json:"summary,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	Priority        *Priority   `json:"priority,omitempty"`
	Metadata        *Metadata   `json:"metadata,omitempty"`
	Reminder        *Reminder   `json:"reminder,omitempty"`
	Source          Source      `json:"source,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// DisplayTitle returns the note title or a generic placeholder
func (n *Note) DisplayTitle() string {
	if n.Title != nil && *n.Title != "" {
		return *n.Title
	}
	return "Untitled Note"
}

// NotePayload is a triaged note ready for persistence: a Note without
// storage identity or timestamps
type NotePayload struct {
	OriginalContent string      `json:"originalContent"`
	CleanedContent  string      `json:"cleanedContent"`
	ContentType     ContentType `json:"contentType"`
	Category        Category    `json:"category,omitempty"`
	Title           string      `json:"title,omitempty"`
	Summary         string      `json:"summary,omitempty"`
	Tags            []string    `json:"tags"`
	Priority        Priority    `json:"priority,omitempty"`
	Metadata        Metadata    `json:"metadata"`
	Source          Source      `json:"source"`
}

// NoteUpdate is a partial update; nil fields are left untouched
type NoteUpdate struct {
	CleanedContent *string
	Category       *Category
	Title          *string
	Summary        *string
	Tags           *[]string
	Priority       *Priority
}

// IsEmpty reports whether the update carries no field at all
func (u NoteUpdate) IsEmpty() bool {
	return u.CleanedContent == nil && u.Category == nil && u.Title == nil &&
		u.Summary == nil && u.Tags == nil && u.Priority == nil
}
