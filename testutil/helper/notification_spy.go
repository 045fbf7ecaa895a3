package helper

import (
	"context"
	"sync"

	"github.com/shelfwise/circulation-go/shell"
)

// NotificationSpy records every notification it receives so tests can assert
// on deliveries. It can be told to fail to exercise the fire-and-forget path.
type NotificationSpy struct {
	mu       sync.Mutex
	sent     []shell.Notification
	failWith error
}

func NewNotificationSpy() *NotificationSpy {
	return &NotificationSpy{}
}

func (s *NotificationSpy) Notify(_ context.Context, notification shell.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}

	s.sent = append(s.sent, notification)

	return nil
}

// Sent returns a copy of all recorded notifications.
func (s *NotificationSpy) Sent() []shell.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]shell.Notification, len(s.sent))
	copy(out, s.sent)

	return out
}

// SentOfKind returns the recorded notifications of one kind.
func (s *NotificationSpy) SentOfKind(kind shell.NotificationKind) []shell.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []shell.Notification

	for _, n := range s.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}

	return out
}

// FailWith makes every subsequent Notify call return err.
func (s *NotificationSpy) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWith = err
}

// Reset drops all recorded notifications.
func (s *NotificationSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = nil
}
