package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PushSubscription is a browser web push endpoint registered by an owner
type PushSubscription struct {
	ID       string `json:"id"`
	OwnerID  string `json:"ownerId"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// SavePushSubscription registers sub, refreshing the keys of an existing
// subscription with the same endpoint. An endpoint registered by another
// owner is not taken over.
func (s *Store) SavePushSubscription(ctx context.Context, sub PushSubscription) (*PushSubscription, error) {
	const op = "save push subscription"
	if strings.TrimSpace(sub.OwnerID) == "" || strings.TrimSpace(sub.Endpoint) == "" {
		return nil, invalidArgument(op, errors.New("owner and endpoint are required"))
	}
	if sub.P256dh == "" || sub.Auth == "" {
		return nil, invalidArgument(op, errors.New("subscription keys are required"))
	}
	if sub.ID == "" {
		sub.ID = newID()
	}

	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO push_subscriptions (id, owner_id, endpoint, p256dh, auth, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (endpoint) DO UPDATE SET
				p256dh = excluded.p256dh,
				auth = excluded.auth
			WHERE push_subscriptions.owner_id = excluded.owner_id
			RETURNING id`,
			sub.ID, sub.OwnerID, sub.Endpoint, sub.P256dh, sub.Auth, toMillis(s.now()),
		).Scan(&sub.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return permissionDenied(op, errors.New("endpoint belongs to another owner"))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListPushSubscriptions returns the subscriptions of ownerID
func (s *Store) ListPushSubscriptions(ctx context.Context, ownerID string) ([]PushSubscription, error) {
	const op = "list push subscriptions"
	var subs []PushSubscription
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, owner_id, endpoint, p256dh, auth
			FROM push_subscriptions
			WHERE owner_id = ?
			ORDER BY created_at, rowid`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var sub PushSubscription
			if err := rows.Scan(&sub.ID, &sub.OwnerID, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
				return err
			}
			subs = append(subs, sub)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// DeletePushSubscription forgets a subscription of ownerID. Unknown
// endpoints and endpoints of other owners are ignored.
func (s *Store) DeletePushSubscription(ctx context.Context, ownerID, endpoint string) error {
	return s.withTx(ctx, "delete push subscription", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE owner_id = ? AND endpoint = ?`, ownerID, endpoint)
		return err
	})
}
