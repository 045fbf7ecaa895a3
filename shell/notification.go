package shell

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotifyOverdue          NotificationKind = "OVERDUE"
	NotifyDueSoon          NotificationKind = "DUE_SOON"
	NotifyReservationReady NotificationKind = "RESERVATION_READY"
	NotifyFineAssessed     NotificationKind = "FINE_ASSESSED"
)

// Notification is one fire-and-forget message to a user.
type Notification struct {
	Kind    NotificationKind
	UserID  uuid.UUID
	TitleID uuid.UUID
	Message string
	SentAt  time.Time
}

// NotificationChannel delivers notifications. Delivery failures must never
// unwind the state transition that triggered them; callers log and move on.
type NotificationChannel interface {
	Notify(ctx context.Context, notification Notification) error
}

// LoggingNotificationChannel writes every notification to the logger instead
// of delivering it anywhere. It is the default channel for development and
// for deployments without a mail/SMS backend.
type LoggingNotificationChannel struct {
	logger circulation.Logger
}

// NewLoggingNotificationChannel creates a channel that logs deliveries.
func NewLoggingNotificationChannel(logger circulation.Logger) *LoggingNotificationChannel {
	if logger == nil {
		logger = circulation.NoopLogger{}
	}

	return &LoggingNotificationChannel{logger: logger}
}

// Notify logs the notification at info level.
func (c *LoggingNotificationChannel) Notify(_ context.Context, notification Notification) error {
	c.logger.Info("notification sent",
		"kind", string(notification.Kind),
		"user_id", notification.UserID.String(),
		"title_id", notification.TitleID.String(),
		"message", notification.Message,
	)

	return nil
}

// FireAndForget delivers a notification on a best-effort basis, logging any
// delivery failure. The caller's committed state transition is never affected.
func FireAndForget(ctx context.Context, channel NotificationChannel, logger circulation.Logger, notification Notification) {
	if channel == nil {
		return
	}

	if logger == nil {
		logger = circulation.NoopLogger{}
	}

	if err := channel.Notify(ctx, notification); err != nil {
		logger.Warn("notification delivery failed",
			"kind", string(notification.Kind),
			"user_id", notification.UserID.String(),
			"error", err.Error(),
		)
	}
}
