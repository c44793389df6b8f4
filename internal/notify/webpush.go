package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/store"
)

// ErrNoSubscriptions means the owner has not registered any browser
var ErrNoSubscriptions = errors.New("no push subscriptions")

// Subscriptions is the part of the store web push needs
type Subscriptions interface {
	ListPushSubscriptions(ctx context.Context, ownerID string) ([]store.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, ownerID, endpoint string) error
}

// WebPushConfig configures VAPID signing
type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	// Subject is a mailto: or https: contact URL
	Subject    string
	TTL        int
	HTTPClient *http.Client
}

// WebPushNotifier sends reminders to every browser an owner subscribed
type WebPushNotifier struct {
	subs   Subscriptions
	cfg    WebPushConfig
	logger *zap.Logger
}

func NewWebPushNotifier(subs Subscriptions, cfg WebPushConfig, logger *zap.Logger) (*WebPushNotifier, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, errors.New("vapid key pair required")
	}
	if cfg.Subject == "" {
		return nil, errors.New("push subject required (e.g. mailto:admin@example.com)")
	}
	if cfg.TTL == 0 {
		cfg.TTL = 3600
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebPushNotifier{subs: subs, cfg: cfg, logger: logger}, nil
}

// Notify succeeds when at least one subscription accepted the message.
// Expired subscriptions are removed.
func (n *WebPushNotifier) Notify(ctx context.Context, note domain.Note) error {
	subs, err := n.subs.ListPushSubscriptions(ctx, note.OwnerID)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	payload, err := json.Marshal(BuildMessage(note))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var errs []error
	for _, sub := range subs {
		if err := n.send(ctx, sub, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(subs) {
		return errors.Join(errs...)
	}
	return nil
}

func (n *WebPushNotifier) send(ctx context.Context, sub store.PushSubscription, payload []byte) error {
	opts := &webpush.Options{
		Subscriber:      n.cfg.Subject,
		VAPIDPublicKey:  n.cfg.PublicKey,
		VAPIDPrivateKey: n.cfg.PrivateKey,
		TTL:             n.cfg.TTL,
		Urgency:         webpush.UrgencyHigh,
	}
	if n.cfg.HTTPClient != nil {
		opts.HTTPClient = n.cfg.HTTPClient
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, opts)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		n.logger.Info("removing expired push subscription", zap.String("endpoint", sub.Endpoint))
		if err := n.subs.DeletePushSubscription(ctx, sub.OwnerID, sub.Endpoint); err != nil {
			n.logger.Warn("remove push subscription", zap.Error(err))
		}
		return fmt.Errorf("subscription expired (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys returns a new base64url encoded key pair
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
