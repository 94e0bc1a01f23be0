package progress

import (
	"context"
	"time"

	"habit-rooms-go/internal/domain/calday"
	progressdomain "habit-rooms-go/internal/domain/progress"
	"gorm.io/gorm"
)

// PostgresRepository reads the rows the completion percentages are derived
// from. It never writes.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListHabitsCreatedBefore(ctx context.Context, roomIDs []string, before time.Time) ([]progressdomain.HabitTarget, error) {
	if len(roomIDs) == 0 {
		return []progressdomain.HabitTarget{}, nil
	}

	var rows []progressdomain.HabitTarget
	if err := r.db.WithContext(ctx).
		Table("habits").
		Select("id, target_count, created_at").
		Where("room_id IN ? AND created_at < ?", roomIDs, before).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) ListMembershipsJoinedBefore(ctx context.Context, habitIDs []string, before time.Time) ([]progressdomain.Membership, error) {
	if len(habitIDs) == 0 {
		return []progressdomain.Membership{}, nil
	}

	var rows []progressdomain.Membership
	if err := r.db.WithContext(ctx).
		Table("habit_memberships").
		Select("habit_id, user_id, joined_at").
		Where("habit_id IN ? AND joined_at < ?", habitIDs, before).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) CountCompletionsOn(ctx context.Context, habitIDs []string, day time.Time) ([]progressdomain.CompletionCount, error) {
	if len(habitIDs) == 0 {
		return []progressdomain.CompletionCount{}, nil
	}

	var rows []progressdomain.CompletionCount
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
