package progress

import (
	"context"
	"time"
)

type Repository interface {
	ListHabitsCreatedBefore(ctx context.Context, roomIDs []string, before time.Time) ([]HabitTarget, error)
	ListMembershipsJoinedBefore(ctx context.Context, habitIDs []string, before time.Time) ([]Membership, error)
	CountCompletionsOn(ctx context.Context, habitIDs []string, day time.Time) ([]CompletionCount, error)
}

type RoomLister interface {
	RoomIDsForUser(ctx context.Context, userID string) ([]string, error)
}
