package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notification is a message addressed to a single recipient.
type Notification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Sender      string `json:"sender"`
	RecipientID string `json:"recipient_id"`
}

// Notifier delivers notifications. Delivery is best-effort: callers log
// failures and move on, they never propagate them.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of delivering them.
// It stands in for a real transport in development setups.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier returns a LogNotifier using the given logger.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// Send logs the notification and always succeeds.
func (n *LogNotifier) Send(_ context.Context, msg Notification) error {
	n.lg.Info("notification",
		zap.String("recipient", msg.RecipientID),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.String("sender", msg.Sender),
	)
	return nil
}
