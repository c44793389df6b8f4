package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pbaille/clipnote/internal/domain"
)

const DefaultNATSSubject = "clipnote.reminders"

// Publisher is satisfied by *nats.Conn
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration
}

// ReminderEvent is the payload published for each due reminder
type ReminderEvent struct {
	Type    string     `json:"type"`
	Message Message    `json:"message"`
	DueAt   *time.Time `json:"dueAt,omitempty"`
	SentAt  time.Time  `json:"sentAt"`
}

// NATSNotifier publishes reminder events so other services can deliver
// them
type NATSNotifier struct {
	pub     Publisher
	subject string
	closer  func()
	now     func() time.Time
}

// NewNATSNotifier connects to NATS
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("clipnote"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	n := NewNATSNotifierWithPublisher(conn, cfg.Subject)
	n.closer = conn.Close
	return n, nil
}

// NewNATSNotifierWithPublisher wraps an existing publisher
func NewNATSNotifierWithPublisher(pub Publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSNotifier{pub: pub, subject: subject, now: time.Now}
}

func (n *NATSNotifier) Notify(_ context.Context, note domain.Note) error {
	event := ReminderEvent{
		Type:    "reminder.due",
		Message: BuildMessage(note),
		SentAt:  n.now().UTC(),
	}
	if note.Reminder != nil && note.Reminder.DueAt != nil {
		due := note.Reminder.DueAt.UTC()
		event.DueAt = &due
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal reminder event: %w", err)
	}
	if err := n.pub.Publish(n.subject+"."+note.OwnerID, data); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	return nil
}

// Close closes the underlying connection when this notifier owns it
func (n *NATSNotifier) Close() error {
	if n.closer != nil {
		n.closer()
	}
	return nil
}
