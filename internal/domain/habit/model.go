package habit

import "time"

type Category string

const (
	CategoryMind    Category = "mind"
	CategoryHealth  Category = "health"
	CategoryHome    Category = "home"
	CategoryErrands Category = "errands"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMind, CategoryHealth, CategoryHome, CategoryErrands:
		return true
	default:
		return false
	}
}

type Type string

const (
	TypeDaily  Type = "daily"
	TypeWeekly Type = "weekly"
)

func (t Type) Valid() bool {
	return t == TypeDaily || t == TypeWeekly
}

type Habit struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description *string
	Category    Category  `gorm:"not null"`
	HabitType   Type      `gorm:"column:habit_type;not null"`
	TargetCount int       `gorm:"not null"`
	CreatedBy   string    `gorm:"type:uuid;not null"`
	RoomID      string    `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type Membership struct {
	ID       string    `gorm:"type:uuid;primaryKey"`
	HabitID  string    `gorm:"type:uuid;not null"`
	UserID   string    `gorm:"type:uuid;not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// Completion is one recorded performance of a habit. Several may exist for
// the same user and day; they count toward TargetCount.
type Completion struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	HabitID        string    `gorm:"type:uuid;not null"`
	UserID         string    `gorm:"type:uuid;not null"`
	CompletionDate time.Time `gorm:"type:date;not null"`
	CompletedAt    time.Time `gorm:"not null"`
}

type MemberProfile struct {
	HabitID     string
	UserID      string
	DisplayName string
	AvatarURL   *string
	JoinedAt    time.Time
}

// CompletionCount is the raw number of completion rows one user has for one
// habit on a day.
type CompletionCount struct {
	HabitID string
	UserID  string
	Count   int
}

type DayCount struct {
	Day   time.Time
	Count int
}

type MemberProgress struct {
	UserID      string
	DisplayName string
	AvatarURL   *string
	// Completions is the unclamped count for the viewed day.
	Completions int
}

// View is a habit as one user sees it on one day.
type View struct {
	Habit
	Members       []MemberProgress
	IsJoined      bool
	IsCreator     bool
	MyCompletions int
}

type CreateInput struct {
	Name        string
	Description *string
	Category    Category
	HabitType   Type
	TargetCount int
}

func (Membership) TableName() string {
	return "habit_memberships"
}

func (Completion) TableName() string {
	return "habit_completions"
}
