// Package notify delivers short alert messages out-of-band. Senders are
// entirely optional: with none configured the Notifier is a no-op, so the
// monitor can run as a pure logger.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier fans a notification out to all registered senders. A single sender
// failure does not prevent delivery to the remaining senders.
type Notifier struct {
	senders []Sender
}

// NewNotifier creates a Notifier for the given senders. Nil or empty senders
// yields a no-op notifier.
func NewNotifier(senders ...Sender) *Notifier {
	return &Notifier{senders: senders}
}

// Enabled reports whether at least one sender is configured.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// Notify sends the message to every sender and returns a combined error
// listing the senders that failed, or nil if all deliveries succeeded.
func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			slog.Warn("Notification sender failed",
				slog.String("sender", s.Name()),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
