package habit

import "habit-rooms-go/internal/domain/failure"

var (
	ErrHabitNotFound   = failure.New(failure.KindNotFound, "habit not found")
	ErrRoomNotFound    = failure.New(failure.KindNotFound, "room not found")
	ErrAlreadyJoined   = failure.New(failure.KindConflict, "already joined this habit")
	ErrNotToday        = failure.New(failure.KindInvalid, "you can only complete habits for today")
	ErrInvalidRange    = failure.New(failure.KindInvalid, "invalid date range")
	ErrInvalidTarget   = failure.New(failure.KindInvalid, "target count must be at least 1")
	ErrInvalidType     = failure.New(failure.KindInvalid, "habit type must be daily or weekly")
	ErrInvalidCategory = failure.New(failure.KindInvalid, "category must be one of mind, health, home, errands")
)
