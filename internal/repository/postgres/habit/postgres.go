package habit

import (
	"context"
	"errors"
	"time"

	"habit-rooms-go/internal/domain/calday"
	habitdomain "habit-rooms-go/internal/domain/habit"
	"habit-rooms-go/internal/repository/postgres/pgerr"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListHabitsByRoom(ctx context.Context, roomID string) ([]habitdomain.Habit, error) {
	var habits []habitdomain.Habit
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc, id asc").
		Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *PostgresRepository) GetHabit(ctx context.Context, habitID string) (*habitdomain.Habit, error) {
	var habit habitdomain.Habit
	if err := r.db.WithContext(ctx).Where("id = ?", habitID).First(&habit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, habitdomain.ErrHabitNotFound
		}
		return nil, err
	}
	return &habit, nil
}

func (r *PostgresRepository) CreateHabit(ctx context.Context, habit *habitdomain.Habit) error {
	return r.db.WithContext(ctx).Create(habit).Error
}

func (r *PostgresRepository) ListMembersWithProfiles(ctx context.Context, habitIDs []string) ([]habitdomain.MemberProfile, error) {
	if len(habitIDs) == 0 {
		return []habitdomain.MemberProfile{}, nil
	}

	type memberRow struct {
		HabitID     string    `gorm:"column:habit_id"`
		UserID      string    `gorm:"column:user_id"`
		JoinedAt    time.Time `gorm:"column:joined_at"`
		DisplayName *string   `gorm:"column:display_name"`
		AvatarURL   *string   `gorm:"column:avatar_url"`
	}

	var rows []memberRow
	if err := r.db.WithContext(ctx).
		Table("habit_memberships").
		Select("habit_memberships.habit_id, habit_memberships.user_id, habit_memberships.joined_at, profiles.display_name, profiles.avatar_url").
		Joins("left join profiles on profiles.user_id = habit_memberships.user_id").
		Where("habit_memberships.habit_id IN ?", habitIDs).
		Order("habit_memberships.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]habitdomain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		member := habitdomain.MemberProfile{
			HabitID:   row.HabitID,
			UserID:    row.UserID,
			JoinedAt:  row.JoinedAt,
			AvatarURL: row.AvatarURL,
		}
		if row.DisplayName != nil {
			member.DisplayName = *row.DisplayName
		}
		members = append(members, member)
	}
	return members, nil
}

func (r *PostgresRepository) CountCompletionsOn(ctx context.Context, habitIDs []string, day time.Time) ([]habitdomain.CompletionCount, error) {
	if len(habitIDs) == 0 {
		return []habitdomain.CompletionCount{}, nil
	}

	var rows []habitdomain.CompletionCount
	if err := r.db.WithContext(ctx).
		Table("habit_completions").
		Select("habit_id, user_id, count(*) as count").
		Where("habit_id IN ? AND completion_date = ?", habitIDs, calday.Format(day)).
		Group("habit_id, user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) AddMembership(ctx context.Context, membership *habitdomain.Membership) error {
	err := r.db.WithContext(ctx).Create(membership).Error
	if pgerr.IsUniqueViolation(err) {
		return habitdomain.ErrAlreadyJoined
	}
	return err
}

func (r *PostgresRepository) DeleteMembership(ctx context.Context, habitID, userID string) error {
	return r.db.WithContext(ctx).
		Where("habit_id = ? AND user_id = ?", habitID, userID).
		Delete(&habitdomain.Membership{}).Error
}

func (r *PostgresRepository) AddCompletion(ctx context.Context, completion *habitdomain.Completion) error {
	return r.db.WithContext(ctx).Create(completion).Error
}

func (r *PostgresRepository) CompletionHistory(ctx context.Context, habitID, userID string, from, to time.Time) ([]habitdomain.DayCount, error) {
	type dayRow struct {
		Day   time.Time `gorm:"column:day"`
		Count int       `gorm:"column:count"`
	}

	var rows []dayRow
	if err := r.db.WithContext(ctx).
		Table("habit_completions").
		Select("completion_date as day, count(*) as count").
		Where("habit_id = ? AND user_id = ? AND completion_date BETWEEN ? AND ?",
			habitID, userID, calday.Format(from), calday.Format(to)).
		Group("completion_date").
		Order("completion_date asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]habitdomain.DayCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, habitdomain.DayCount{Day: calday.Of(row.Day), Count: row.Count})
	}
	return result, nil
}
