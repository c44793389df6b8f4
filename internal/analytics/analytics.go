// Package analytics computes usage statistics over one owner's notes.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/pbaille/clipnote/internal/domain"
)

const (
	uncategorized = "uncategorized"
	topTags       = 10
	activityDays  = 7
)

// Report is the analytics summary of a set of notes
type Report struct {
	TotalNotes        int           `json:"totalNotes"`
	NotesToday        int           `json:"notesToday"`
	NotesThisWeek     int           `json:"notesThisWeek"`
	CategoryStats     []Stat        `json:"categoryStats"`
	PriorityStats     []Stat        `json:"priorityStats"`
	TypeStats         []Stat        `json:"typeStats"`
	DailyActivity     []DayActivity `json:"dailyActivity"`
	TagStats          []TagStat     `json:"tagStats"`
	ReminderStats     ReminderStats `json:"reminderStats"`
	ProductivityScore int           `json:"productivityScore"`
}

// Stat is a count and its rounded share of all notes
type Stat struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type DayActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TagStat struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type ReminderStats struct {
	TotalWithReminders int `json:"totalWithReminders"`
	ActiveReminders    int `json:"activeReminders"`
	CompletedReminders int `json:"completedReminders"`
}

// Generate builds a Report. Days are computed in the location of now.
func Generate(notes []*domain.Note, now time.Time) Report {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekAgo := today.AddDate(0, 0, -activityDays)

	r := Report{TotalNotes: len(notes)}

	categories := newCounter()
	priorities := newCounter()
	types := newCounter()
	tags := newCounter()

	for _, n := range notes {
		created := n.CreatedAt.In(now.Location())
		if !created.Before(today) && created.Before(tomorrow) {
			r.NotesToday++
		}
		if !created.Before(weekAgo) {
			r.NotesThisWeek++
		}

		category := uncategorized
		if n.Category != nil && *n.Category != "" {
			category = string(*n.Category)
		}
		categories.add(category)

		priority := string(domain.PriorityMedium)
		if n.Priority != nil && *n.Priority != "" {
			priority = string(*n.Priority)
		}
		priorities.add(priority)

		types.add(string(n.ContentType))

		for _, tag := range n.Tags {
			tags.add(tag)
		}

		if rem := n.Reminder; rem != nil && rem.Enabled {
			r.ReminderStats.TotalWithReminders++
			if rem.Notified {
				r.ReminderStats.CompletedReminders++
			} else if rem.DueAt != nil && rem.DueAt.After(now) {
				r.ReminderStats.ActiveReminders++
			}
		}
	}

	r.CategoryStats = categories.stats(len(notes))
	r.PriorityStats = priorities.stats(len(notes))
	r.TypeStats = types.stats(len(notes))

	for _, e := range tags.sorted() {
		if len(r.TagStats) == topTags {
			break
		}
		r.TagStats = append(r.TagStats, TagStat{Tag: e.name, Count: e.count})
	}
	if r.TagStats == nil {
		r.TagStats = []TagStat{}
	}

	r.DailyActivity = dailyActivity(notes, weekAgo, today, now.Location())

	r.ProductivityScore = min(100,
		r.NotesThisWeek*10+
			r.ReminderStats.TotalWithReminders*5+
			len(r.CategoryStats)*3+
			len(r.TagStats)*2)

	return r
}

// dailyActivity has one bucket per day from weekAgo through today
func dailyActivity(notes []*domain.Note, weekAgo, today time.Time, loc *time.Location) []DayActivity {
	var days []DayActivity
	for day := weekAgo; !day.After(today); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		count := 0
		for _, n := range notes {
			created := n.CreatedAt.In(loc)
			if !created.Before(day) && created.Before(next) {
				count++
			}
		}
		days = append(days, DayActivity{Date: day.Format("Jan 02"), Count: count})
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type entry struct {
	name  string
	count int
	first int
}

// counter counts names and remembers first-seen order for stable ties
type counter struct {
	entries map[string]*entry
}

func newCounter() *counter {
	return &counter{entries: map[string]*entry{}}
}

func (c *counter) add(name string) {
	e, ok := c.entries[name]
	if !ok {
		e = &entry{name: name, first: len(c.entries)}
		c.entries[name] = e
	}
	e.count++
}

// sorted returns entries by descending count, first seen first on ties
func (c *counter) sorted() []entry {
	out := make([]entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].first < out[j].first
	})
	return out
}

func (c *counter) stats(total int) []Stat {
	out := []Stat{}
	for _, e := range c.sorted() {
		out = append(out, Stat{Name: e.name, Count: e.count, Percentage: percentage(e.count, total)})
	}
	return out
}

func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
