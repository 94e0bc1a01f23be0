package notification

import "habit-rooms-go/internal/domain/failure"

var (
	ErrRateLimited          = failure.New(failure.KindConflict, "you can only nudge once per hour per user")
	ErrSelfNudge            = failure.New(failure.KindInvalid, "you cannot nudge yourself")
	ErrHabitNotFound        = failure.New(failure.KindNotFound, "habit not found")
	ErrRecipientNotFound    = failure.New(failure.KindNotFound, "recipient is not a member of this room")
	ErrNotificationNotFound = failure.New(failure.KindNotFound, "notification not found")
)
