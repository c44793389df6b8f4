// Package reminder periodically delivers due reminders.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/metrics"
	"github.com/pbaille/clipnote/internal/notify"
)

// DefaultInterval is the polling period of Run
const DefaultInterval = time.Minute

// Store is the part of the note store the sweep needs
type Store interface {
	ListDueUnnotifiedReminders(ctx context.Context, ownerID string, now time.Time) ([]*domain.Note, error)
	ListReminderOwners(ctx context.Context, now time.Time) ([]string, error)
	MarkNotified(ctx context.Context, id string) error
}

// Sweeper delivers due reminders and marks them notified
type Sweeper struct {
	Store    Store
	Notifier notify.Notifier
	Interval time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

// Result summarizes one sweep
type Result struct {
	Notified int
	Failed   int
}

func (s *Sweeper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// SweepOwner notifies every due, unnotified reminder of ownerID. A failed
// delivery leaves its reminder unnotified for the next sweep and does not
// stop the others. Store failures abort the sweep.
func (s *Sweeper) SweepOwner(ctx context.Context, ownerID string) (Result, error) {
	var res Result

	notes, err := s.Store.ListDueUnnotifiedReminders(ctx, ownerID, s.now())
	if err != nil {
		return res, fmt.Errorf("list due reminders: %w", err)
	}

	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := s.Notifier.Notify(ctx, *note); err != nil {
			res.Failed++
			metrics.RecordReminderFailure()
			s.logger().Warn("reminder delivery failed",
				zap.String("note", note.ID),
				zap.String("owner", ownerID),
				zap.Error(err),
			)
			continue
		}

		if err := s.Store.MarkNotified(ctx, note.ID); err != nil {
			return res, fmt.Errorf("mark note %s notified: %w", note.ID, err)
		}
		res.Notified++
		metrics.RecordReminderNotified()
		s.logger().Info("reminder delivered",
			zap.String("note", note.ID),
			zap.String("owner", ownerID),
		)
	}
	return res, nil
}

// SweepAll sweeps every owner that has a due reminder. A store failure for
// one owner does not skip the others; all failures are returned joined.
func (s *Sweeper) SweepAll(ctx context.Context) (Result, error) {
	var total Result

	owners, err := s.Store.ListReminderOwners(ctx, s.now())
	if err != nil {
		return total, fmt.Errorf("list reminder owners: %w", err)
	}

	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.SweepOwner(ctx, owner)
		total.Notified += res.Notified
		total.Failed += res.Failed
		if err != nil {
			s.logger().Error("reminder sweep failed for owner", zap.String("owner", owner), zap.Error(err))
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
		}
	}
	return total, errors.Join(errs...)
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
// Sweep errors are logged; Run only returns once ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	log := s.logger()
	log.Info("reminder sweeper started", zap.Duration("interval", interval))

	s.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reminder sweeper stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	res, err := s.SweepAll(ctx)
	if err != nil && ctx.Err() == nil {
		s.logger().Error("reminder sweep failed", zap.Error(err))
	}
	if res.Notified > 0 || res.Failed > 0 {
		s.logger().Info("reminder sweep",
			zap.Int("notified", res.Notified),
			zap.Int("failed", res.Failed),
		)
	}
}
