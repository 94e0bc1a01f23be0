package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"habit-rooms-go/internal/domain/failure"
	"habit-rooms-go/internal/realtime"
	"habit-rooms-go/pkg/logger"
)

type Service struct {
	repo   Repository
	rooms  RoomAccess
	events realtime.Publisher
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, rooms RoomAccess, events realtime.Publisher, log logger.Logger) *Service {
	if events == nil {
		events = realtime.Discard{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:   repo,
		rooms:  rooms,
		events: events,
		log:    log.With("component", "notifications"),
		now:    time.Now,
	}
}

// SendNudge records a nudge and the recipient's notification together. A
// second nudge for the same sender, recipient and habit within NudgeWindow
// fails with ErrRateLimited and writes nothing.
func (s *Service) SendNudge(ctx context.Context, fromUserID, toUserID, habitID string) (*Nudge, error) {
	if strings.TrimSpace(toUserID) == "" || strings.TrimSpace(habitID) == "" {
		return nil, failure.Invalid("recipient and habit are required")
	}
	if fromUserID == toUserID {
		return nil, ErrSelfNudge
	}

	habit, err := s.repo.GetHabitRef(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, habit.RoomID, fromUserID, ErrHabitNotFound); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, habit.RoomID, toUserID, ErrRecipientNotFound); err != nil {
		return nil, err
	}

	sender, err := s.repo.DisplayName(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sender) == "" {
		sender = "Someone"
	}

	now := s.now().UTC()
	nudge := Nudge{
		ID:         uuid.NewString(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		HabitID:    habitID,
		CreatedAt:  now,
	}
	notification := Notification{
		ID:         uuid.NewString(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		HabitID:    habitID,
		Message:    fmt.Sprintf("%s nudged you about %s", sender, habit.Name),
		CreatedAt:  now,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		recent, err := tx.HasNudgeSince(ctx, fromUserID, toUserID, habitID, now.Add(-NudgeWindow))
		if err != nil {
			return err
		}
		if recent {
			return ErrRateLimited
		}
		if err := tx.CreateNudge(ctx, &nudge); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &notification)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Changed(realtime.TableNudges, realtime.OpInsert, nudge.ID).For(fromUserID, toUserID))
	s.events.Publish(realtime.Changed(realtime.TableNotifications, realtime.OpInsert, notification.ID).For(toUserID))
	s.log.Info("notifications.nudge: sent", "from_user_id", fromUserID, "to_user_id", toUserID, "habit_id", habitID)
	return &nudge, nil
}

// ListNotifications returns notifications addressed to userID, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID string) ([]NotificationView, error) {
	return s.repo.ListNotifications(ctx, userID)
}

func (s *Service) ListSentNudges(ctx context.Context, userID string) ([]NudgeView, error) {
	return s.repo.ListSentNudges(ctx, userID)
}

func (s *Service) ListReceivedNudges(ctx context.Context, userID string) ([]NudgeView, error) {
	return s.repo.ListReceivedNudges(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	updated, err := s.repo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotificationNotFound
	}
	s.events.Publish(realtime.Changed(realtime.TableNotifications, realtime.OpUpdate, notificationID).For(userID))
	return nil
}

// UnreadCount is derived from the notification list rather than stored.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	notifications, err := s.repo.ListNotifications(ctx, userID)
	if err != nil {
		return 0, err
	}
	return CountUnread(notifications), nil
}

func CountUnread(notifications []NotificationView) int {
	unread := 0
	for _, notification := range notifications {
		if !notification.Read {
			unread++
		}
	}
	return unread
}

func (s *Service) requireMember(ctx context.Context, roomID, userID string, missing error) error {
	member, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return missing
	}
	return nil
}
