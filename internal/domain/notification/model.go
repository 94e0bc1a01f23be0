package notification

import "time"

// NudgeWindow is the sliding window in which a sender may nudge the same
// recipient about the same habit only once.
const NudgeWindow = time.Hour

type Nudge struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	FromUserID string    `gorm:"type:uuid;not null"`
	ToUserID   string    `gorm:"type:uuid;not null"`
	HabitID    string    `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Notification struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	FromUserID string    `gorm:"type:uuid;not null"`
	ToUserID   string    `gorm:"type:uuid;not null;index"`
	HabitID    string    `gorm:"type:uuid;not null"`
	Message    string    `gorm:"not null"`
	Read       bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
}

// Party is the display identity of the other side of a nudge.
type Party struct {
	UserID      string
	DisplayName string
	AvatarURL   *string
}

type NotificationView struct {
	Notification
	FromUser  Party
	HabitName string
}

type NudgeView struct {
	Nudge
	FromUser  Party
	ToUser    Party
	HabitName string
}

type HabitRef struct {
	ID     string
	Name   string
	RoomID string
}
