package habit

import (
	"context"
	"time"
)

type Repository interface {
	ListHabitsByRoom(ctx context.Context, roomID string) ([]Habit, error)
	GetHabit(ctx context.Context, habitID string) (*Habit, error)
	CreateHabit(ctx context.Context, habit *Habit) error
	ListMembersWithProfiles(ctx context.Context, habitIDs []string) ([]MemberProfile, error)
	CountCompletionsOn(ctx context.Context, habitIDs []string, day time.Time) ([]CompletionCount, error)
	// AddMembership returns ErrAlreadyJoined on a duplicate (habit, user) pair.
	AddMembership(ctx context.Context, membership *Membership) error
	DeleteMembership(ctx context.Context, habitID, userID string) error
	AddCompletion(ctx context.Context, completion *Completion) error
	// CompletionHistory returns per-day counts in [from, to], omitting empty days.
	CompletionHistory(ctx context.Context, habitID, userID string, from, to time.Time) ([]DayCount, error)
}

// RoomAccess answers whether a user belongs to a room.
type RoomAccess interface {
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}
