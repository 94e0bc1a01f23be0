package room

import "context"

type Repository interface {
	ListRoomsByUser(ctx context.Context, userID string) ([]Room, error)
	GetRoom(ctx context.Context, roomID string) (*Room, error)
	// GetRoomByCode matches the invite code case-insensitively.
	GetRoomByCode(ctx context.Context, code string) (*Room, error)
	LookupCode(ctx context.Context, code string) (*CodeLookup, error)
	ListMembersWithProfiles(ctx context.Context, roomIDs []string) ([]MemberProfile, error)
	// CreateRoom returns ErrInviteCodeTaken when the code collides.
	CreateRoom(ctx context.Context, room *Room) error
	// AddMember returns ErrAlreadyMember or ErrRoomFull when storage
	// constraints reject the row.
	AddMember(ctx context.Context, member *RoomMember) error
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	CountMembers(ctx context.Context, roomID string) (int64, error)
	DeleteMember(ctx context.Context, roomID, userID string) error
}

// SelectionStore holds each user's currently selected room id.
type SelectionStore interface {
	Get(userID string) (string, bool)
	Set(userID, roomID string)
	Delete(userID string)
}

type noopSelections struct{}

func (noopSelections) Get(string) (string, bool) {
	return "", false
}

func (noopSelections) Set(string, string) {}

func (noopSelections) Delete(string) {}
