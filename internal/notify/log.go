package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/domain"
)

// LogNotifier writes reminders to the log. It never fails.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note domain.Note) error {
	msg := BuildMessage(note)
	n.logger.Info(msg.Title,
		zap.String("body", msg.Body),
		zap.String("note", note.ID),
		zap.String("owner", note.OwnerID),
	)
	return nil
}
