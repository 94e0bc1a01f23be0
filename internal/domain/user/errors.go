package user

import "habit-rooms-go/internal/domain/failure"

var (
	ErrProfileNotFound = failure.New(failure.KindNotFound, "profile not found")
	ErrEmptyUpdate     = failure.New(failure.KindInvalid, "nothing to update")
)
