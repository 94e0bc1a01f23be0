package room

import "habit-rooms-go/internal/domain/failure"

var (
	ErrRoomNotFound         = failure.New(failure.KindNotFound, "room not found")
	ErrNoRooms              = failure.New(failure.KindNotFound, "user has no rooms")
	ErrInvalidCode          = failure.New(failure.KindNotFound, "invalid invite code")
	ErrAlreadyMember        = failure.New(failure.KindConflict, "already a member of this room")
	ErrRoomFull             = failure.New(failure.KindCapacityExceeded, "room already has 3 members")
	ErrInviteCodeTaken      = failure.New(failure.KindConflict, "invite code already in use")
	ErrCodeGenerationFailed = failure.New(failure.KindRemote, "invite code generation failed")
	ErrOrphanedRoom         = failure.New(failure.KindRemote, "room created but creator membership failed")
)
