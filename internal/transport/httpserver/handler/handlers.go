package handler

import (
	"context"
	"time"

	habitdomain "habit-rooms-go/internal/domain/habit"
	notificationdomain "habit-rooms-go/internal/domain/notification"
	progressdomain "habit-rooms-go/internal/domain/progress"
	roomdomain "habit-rooms-go/internal/domain/room"
	userdomain "habit-rooms-go/internal/domain/user"
	"habit-rooms-go/internal/realtime"
	"habit-rooms-go/pkg/logger"
)

type RoomService interface {
	ListRooms(ctx context.Context, userID string) ([]roomdomain.Details, error)
	GetRoom(ctx context.Context, userID, roomID string) (*roomdomain.Details, error)
	CreateRoom(ctx context.Context, userID, name string) (*roomdomain.Details, error)
	JoinRoom(ctx context.Context, userID, code string) (*roomdomain.Details, error)
	LeaveRoom(ctx context.Context, userID, roomID string) error
	CurrentRoom(ctx context.Context, userID string) (*roomdomain.Details, error)
	SetCurrentRoom(ctx context.Context, userID, roomID string) (*roomdomain.Details, error)
	ClearSelection(userID string)
	RoomIDsForUser(ctx context.Context, userID string) ([]string, error)
}

type HabitService interface {
	Today() time.Time
	ListHabits(ctx context.Context, userID, roomID string, day time.Time) ([]habitdomain.View, error)
	CreateHabit(ctx context.Context, userID, roomID string, input habitdomain.CreateInput) (*habitdomain.Habit, error)
	JoinHabit(ctx context.Context, userID, habitID string) error
	LeaveHabit(ctx context.Context, userID, habitID string) error
	CompleteHabit(ctx context.Context, userID, habitID string, viewedDay *time.Time) (*habitdomain.Completion, error)
	CompletionHistory(ctx context.Context, userID, habitID string, from, to time.Time) ([]habitdomain.DayCount, error)
}

type ProgressService interface {
	Today() time.Time
	Daily(ctx context.Context, userID string, day time.Time) (float64, error)
	Calendar(ctx context.Context, userID string, days int) ([]progressdomain.DayPercentage, error)
	Weekly(ctx context.Context, userID string, weekEnd time.Time) (float64, error)
}

type NotificationService interface {
	SendNudge(ctx context.Context, fromUserID, toUserID, habitID string) (*notificationdomain.Nudge, error)
	ListNotifications(ctx context.Context, userID string) ([]notificationdomain.NotificationView, error)
	ListSentNudges(ctx context.Context, userID string) ([]notificationdomain.NudgeView, error)
	ListReceivedNudges(ctx context.Context, userID string) ([]notificationdomain.NudgeView, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*userdomain.Profile, error)
	UpdateProfile(ctx context.Context, session userdomain.Session, update userdomain.ProfileUpdate) (*userdomain.Profile, error)
}

type EventSource interface {
	Subscribe(tables ...realtime.Table) *realtime.Subscription
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Rooms         RoomService
	Habits        HabitService
	Progress      ProgressService
	Notifications NotificationService
	Profiles      ProfileService
	EventSource   EventSource
	DB            Pinger

	log       logger.Logger
	heartbeat time.Duration
}

func New(rooms RoomService, habits HabitService, progress ProgressService, notifications NotificationService, profiles ProfileService, events EventSource, db Pinger, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Discard()
	}
	return &Handlers{
		Rooms:         rooms,
		Habits:        habits,
		Progress:      progress,
		Notifications: notifications,
		Profiles:      profiles,
		EventSource:   events,
		DB:            db,
		log:           log.With("component", "http"),
		heartbeat:     25 * time.Second,
	}
}
