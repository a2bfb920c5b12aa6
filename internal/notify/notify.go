package notify

import (
	"context"
	"fmt"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/aegisguard/aegis/internal/kafka"
	"go.uber.org/zap"
)

// Notification is a formatted, audience-ready message derived from a
// lifecycle event. Delivery (push, SMS, email) lives behind Sender and is
// outside this core.
type Notification struct {
	BookingID string
	Event     string
	Text      string
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender is the default delivery stand-in: it records the notification
// and does nothing else.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("component", "notify"))}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.log.Info("notification",
		zap.String("booking_id", n.BookingID),
		zap.String("event", n.Event),
		zap.String("text", n.Text))
	return nil
}

// Notifier turns consumed domain events into notifications.
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) Handle(ctx context.Context, msg kafka.DomainEventMessage) error {
	text, ok := render(msg)
	if !ok {
		// Unknown event names are skipped, not failed: the consumer must
		// keep draining the topic.
		return nil
	}
	return n.sender.Send(ctx, Notification{
		BookingID: msg.BookingID,
		Event:     msg.Name,
		Text:      text,
	})
}

func render(msg kafka.DomainEventMessage) (string, bool) {
	switch domain.EventName(msg.Name) {
	case domain.EventBookingRequested:
		return "We received your booking request and are finding a guard.", true
	case domain.EventGuardMatched:
		return "A guard has been matched to your booking.", true
	case domain.EventBookingAccepted:
		return "Your guard accepted the booking.", true
	case domain.EventJobStarted:
		return "Your guard is on site and the job has started.", true
	case domain.EventBookingCompleted:
		return "Your booking is complete. Thanks for using Aegis.", true
	case domain.EventBookingCancelled:
		return fmt.Sprintf("Your booking %s was cancelled.", msg.BookingID), true
	default:
		return "", false
	}
}
