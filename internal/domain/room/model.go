package room

import "time"

// MaxMembers is the room capacity checked at join time.
const MaxMembers = 3

type Room struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null"`
	InviteCode string    `gorm:"size:6;not null;uniqueIndex"`
	CreatedBy  string    `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type RoomMember struct {
	RoomID   string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// MemberProfile is a room member joined with their display identity.
type MemberProfile struct {
	RoomID      string
	UserID      string
	DisplayName string
	AvatarURL   *string
	JoinedAt    time.Time
}

// Details is a room as seen by one user.
type Details struct {
	Room
	Members     []MemberProfile
	MemberCount int
	IsCreator   bool
}

// CodeLookup is the informational answer of the debug_room_lookup procedure.
type CodeLookup struct {
	Found       bool
	RoomID      string
	RoomName    string
	MemberCount int
}
