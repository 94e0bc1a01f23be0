package user

import "time"

type Profile struct {
	UserID      string    `gorm:"type:uuid;primaryKey"`
	DisplayName *string   `gorm:"type:text"`
	Email       *string   `gorm:"type:text"`
	AvatarURL   *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Session is the caller's authenticated session. A zero ExpiresAt means the
// provider did not report an expiry.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

type ProfileUpdate struct {
	DisplayName *string
	// AvatarURL set to an empty string clears the avatar.
	AvatarURL *string
}

func (Profile) TableName() string {
	return "profiles"
}
