package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/clipnote/internal/reminder"
)

var timeNow = time.Now

var reminderLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseDue(at string, in time.Duration) (time.Time, error) {
	if in > 0 {
		return timeNow().Add(in), nil
	}
	for _, layout := range reminderLayouts {
		if t, err := time.ParseInLocation(layout, at, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use e.g. \"2006-01-02 15:04\"", at)
}

func (a *app) remindCmd() *cobra.Command {
	var (
		at  string
		in  time.Duration
		off bool
	)

	cmd := &cobra.Command{
		Use:   "remind [id]",
		Short: "Set or clear the reminder of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !off && at == "" && in <= 0 {
				return errors.New("one of --at, --in or --off is required")
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			n, err := findNote(ctx, s, a.cfg.Owner, args[0])
			if err != nil {
				return err
			}

			if off {
				if err := s.SetReminder(ctx, n.ID, false, nil); err != nil {
					return err
				}
				fmt.Printf("Reminder cleared: %s\n", shortID(n.ID))
				return nil
			}

			due, err := parseDue(at, in)
			if err != nil {
				return err
			}
			if err := s.SetReminder(ctx, n.ID, true, &due); err != nil {
				return err
			}
			fmt.Printf("Reminder set for %s: %s\n", due.Local().Format("2006-01-02 15:04"), n.DisplayTitle())
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "due time, e.g. \"2024-05-01 09:00\"")
	cmd.Flags().DurationVar(&in, "in", 0, "due after this duration, e.g. 2h")
	cmd.Flags().BoolVar(&off, "off", false, "clear the reminder")
	return cmd
}

func (a *app) dismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss [id]",
		Short: "Mark a reminder as done",
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
			if err := s.MarkNotified(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Printf("Reminder dismissed: %s\n", n.DisplayTitle())
			return nil
		},
	}
}

func (a *app) sweepCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Deliver due reminders once",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, cleanup, err := a.notifier(s)
			if err != nil {
				return err
			}
			defer cleanup()

			sw := &reminder.Sweeper{Store: s, Notifier: n, Logger: a.logger.Named("sweep")}

			var res reminder.Result
			if all {
				res, err = sw.SweepAll(cmd.Context())
			} else {
				res, err = sw.SweepOwner(cmd.Context(), a.cfg.Owner)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Notified %d reminder(s), %d failed\n", res.Notified, res.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "sweep every owner, not just --owner")
	return cmd
}
