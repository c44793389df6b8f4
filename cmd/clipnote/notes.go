package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/clipnote/internal/analytics"
	"github.com/pbaille/clipnote/internal/clipboard"
	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/search"
)

func (a *app) addCmd() *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a note (reads stdin when no content is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw domain.RawInput
			switch {
			case imagePath != "":
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				raw = clipboard.FromBytes(data, "")
			case len(args) > 0:
				raw = domain.TextInput(strings.Join(args, " "))
			default:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				raw = clipboard.FromBytes(data, "")
			}
			return a.capture(cmd.Context(), raw)
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "add an image file instead of text")
	return cmd
}

func (a *app) pasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paste",
		Short: "Add a note from the system clipboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := clipboard.System().Read()
			if err != nil {
				return err
			}
			return a.capture(cmd.Context(), raw)
		},
	}
}

// capture triages raw input and saves the resulting note
func (a *app) capture(ctx context.Context, raw domain.RawInput) error {
	t, err := a.triager()
	if err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if raw.Kind == domain.InputText {
		fmt.Print("Classifying... ")
	}
	payload, err := t.Triage(ctx, raw)
	if err != nil {
		fmt.Println()
		return err
	}
	if raw.Kind == domain.InputText {
		fmt.Printf("done (%s)\n", payload.Source)
	}

	id, err := s.CreateNote(ctx, a.cfg.Owner, payload)
	if err != nil {
		return err
	}

	fmt.Printf("Added note: %s\n", shortID(id))
	if payload.Title != "" {
		fmt.Printf("Title:    %s\n", payload.Title)
	}
	if payload.Category != "" {
		fmt.Printf("Category: %s (%s priority)\n", payload.Category, payload.Priority)
	}
	for _, tag := range payload.Tags {
		fmt.Printf("  + %s\n", tag)
	}
	return nil
}

func (a *app) listCmd() *cobra.Command {
	var (
		limit    int
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			var notes []*domain.Note
			if category != "" {
				c := domain.Category(strings.ToLower(category))
				if !c.Valid() {
					return fmt.Errorf("unknown category: %s", category)
				}
				notes, err = s.ListNotesByOwnerAndCategory(ctx, a.cfg.Owner, c)
			} else {
				notes, err = s.ListNotesByOwner(ctx, a.cfg.Owner)
			}
			if err != nil {
				return err
			}

			if len(notes) == 0 {
				fmt.Println("No notes yet. Use 'clipnote add' to create one.")
				return nil
			}
			if limit > 0 && len(notes) > limit {
				notes = notes[:limit]
			}
			printNotes(notes)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of notes to show")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only show this category")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show note details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := findNote(cmd.Context(), s, a.cfg.Owner, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("ID:       %s\n", n.ID)
			fmt.Printf("Title:    %s\n", n.DisplayTitle())
			fmt.Printf("Type:     %s\n", n.ContentType)
			if n.Category != nil {
				fmt.Printf("Category: %s\n", *n.Category)
			}
			if n.Priority != nil {
				fmt.Printf("Priority: %s\n", *n.Priority)
			}
			fmt.Printf("Source:   %s\n", n.Source)
			fmt.Printf("Created:  %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if n.Reminder != nil && n.Reminder.Enabled && n.Reminder.DueAt != nil {
				state := "pending"
				if n.Reminder.Notified {
					state = "done"
				}
				fmt.Printf("Reminder: %s (%s)\n", n.Reminder.DueAt.Local().Format("2006-01-02 15:04"), state)
			}
			if n.Summary != nil && *n.Summary != "" {
				fmt.Printf("\nSummary:\n%s\n", *n.Summary)
			}
			fmt.Printf("\nContent:\n%s\n", n.CleanedContent)

			if len(n.Tags) > 0 {
				fmt.Printf("\nTags:\n")
				for _, t := range n.Tags {
					fmt.Printf("  - %s\n", t)
				}
			}
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			notes, err := s.ListNotesByOwner(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}

			notes = search.Filter(notes, strings.Join(args, " "))
			if len(notes) == 0 {
				fmt.Println("No matching notes found.")
				return nil
			}
			printNotes(notes)
			return nil
		},
	}
}

func (a *app) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			tags, err := s.ListTags(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}

			if len(tags) == 0 {
				fmt.Println("No tags yet. Tags emerge from note classification.")
				return nil
			}
			for _, t := range tags {
				fmt.Printf("%4d  %s\n", t.Count, t.Name)
			}
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := findNote(cmd.Context(), s, a.cfg.Owner, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteNote(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted note: %s\n", shortID(n.ID))
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show note statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			notes, err := s.ListNotesByOwner(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}
			r := analytics.Generate(notes, timeNow())

			fmt.Printf("Notes:        %d total, %d today, %d this week\n", r.TotalNotes, r.NotesToday, r.NotesThisWeek)
			fmt.Printf("Reminders:    %d set, %d active, %d completed\n",
				r.ReminderStats.TotalWithReminders, r.ReminderStats.ActiveReminders, r.ReminderStats.CompletedReminders)
			fmt.Printf("Productivity: %d/100\n", r.ProductivityScore)

			printStats("Categories", r.CategoryStats)
			printStats("Priorities", r.PriorityStats)
			printStats("Types", r.TypeStats)

			fmt.Println("\nLast 7 days:")
			for _, d := range r.DailyActivity {
				fmt.Printf("  %s  %s %d\n", d.Date, strings.Repeat("#", d.Count), d.Count)
			}

			if len(r.TagStats) > 0 {
				fmt.Println("\nTop tags:")
				for _, t := range r.TagStats {
					fmt.Printf("  %4d  %s\n", t.Count, t.Tag)
				}
			}
			return nil
		},
	}
}

func printStats(title string, stats []analytics.Stat) {
	if len(stats) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, s := range stats {
		fmt.Printf("  %-14s %4d  %3d%%\n", s.Name, s.Count, s.Percentage)
	}
}

func printNotes(notes []*domain.Note) {
	for _, n := range notes {
		category := "-"
		if n.Category != nil {
			category = string(*n.Category)
		}
		fmt.Printf("%s  %-9s %s\n", shortID(n.ID), category, truncate(n.DisplayTitle(), 60))
	}
}
