package notification

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetHabitRef(ctx context.Context, habitID string) (*HabitRef, error)
	DisplayName(ctx context.Context, userID string) (string, error)
	// HasNudgeSince reports a nudge for the triple created at or after since.
	// Inside a transaction it also serializes concurrent senders of the triple.
	HasNudgeSince(ctx context.Context, fromUserID, toUserID, habitID string, since time.Time) (bool, error)
	CreateNudge(ctx context.Context, nudge *Nudge) error
	CreateNotification(ctx context.Context, notification *Notification) error
	ListNotifications(ctx context.Context, userID string) ([]NotificationView, error)
	ListSentNudges(ctx context.Context, userID string) ([]NudgeView, error)
	ListReceivedNudges(ctx context.Context, userID string) ([]NudgeView, error)
	// MarkRead updates only rows addressed to userID and returns how many
	// changed.
	MarkRead(ctx context.Context, notificationID, userID string) (int64, error)
}

type RoomAccess interface {
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}
