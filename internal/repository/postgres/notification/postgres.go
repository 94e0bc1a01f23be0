package notification

import (
	"context"
	"errors"
	"time"

	notificationdomain "habit-rooms-go/internal/domain/notification"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(notificationdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetHabitRef(ctx context.Context, habitID string) (*notificationdomain.HabitRef, error) {
	var ref notificationdomain.HabitRef
	err := r.db.WithContext(ctx).
		Table("habits").
		Select("id, name, room_id").
		Where("id = ?", habitID).
		Take(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notificationdomain.ErrHabitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *PostgresRepository) DisplayName(ctx context.Context, userID string) (string, error) {
	var names []*string
	if err := r.db.WithContext(ctx).
		Table("profiles").
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("display_name", &names).Error; err != nil {
		return "", err
	}
	if len(names) == 0 || names[0] == nil {
		return "", nil
	}
	return *names[0], nil
}

// HasNudgeSince takes a transaction-scoped advisory lock on the triple first,
// so two senders racing inside transactions see each other's insert.
func (r *PostgresRepository) HasNudgeSince(ctx context.Context, fromUserID, toUserID, habitID string, since time.Time) (bool, error) {
	if err := r.db.WithContext(ctx).
		Exec("select pg_advisory_xact_lock(hashtext(?))", fromUserID+":"+toUserID+":"+habitID).Error; err != nil {
		return false, err
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&notificationdomain.Nudge{}).
		Where("from_user_id = ? AND to_user_id = ? AND habit_id = ? AND created_at >= ?", fromUserID, toUserID, habitID, since).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateNudge(ctx context.Context, nudge *notificationdomain.Nudge) error {
	return r.db.WithContext(ctx).Create(nudge).Error
}

func (r *PostgresRepository) CreateNotification(ctx context.Context, notification *notificationdomain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *PostgresRepository) ListNotifications(ctx context.Context, userID string) ([]notificationdomain.NotificationView, error) {
	type notificationRow struct {
		ID              string    `gorm:"column:id"`
		FromUserID      string    `gorm:"column:from_user_id"`
		ToUserID        string    `gorm:"column:to_user_id"`
		HabitID         string    `gorm:"column:habit_id"`
		Message         string    `gorm:"column:message"`
		Read            bool      `gorm:"column:read"`
		CreatedAt       time.Time `gorm:"column:created_at"`
		FromDisplayName *string   `gorm:"column:from_display_name"`
		FromAvatarURL   *string   `gorm:"column:from_avatar_url"`
		HabitName       *string   `gorm:"column:habit_name"`
	}

	var rows []notificationRow
	if err := r.db.WithContext(ctx).
		Table("notifications").
		Select("notifications.*, sender.display_name as from_display_name, sender.avatar_url as from_avatar_url, habits.name as habit_name").
		Joins("left join profiles sender on sender.user_id = notifications.from_user_id").
		Joins("left join habits on habits.id = notifications.habit_id").
		Where("notifications.to_user_id = ?", userID).
		Order("notifications.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]notificationdomain.NotificationView, 0, len(rows))
	for _, row := range rows {
		result = append(result, notificationdomain.NotificationView{
			Notification: notificationdomain.Notification{
				ID:         row.ID,
				FromUserID: row.FromUserID,
				ToUserID:   row.ToUserID,
				HabitID:    row.HabitID,
				Message:    row.Message,
				Read:       row.Read,
				CreatedAt:  row.CreatedAt,
			},
			FromUser:  party(row.FromUserID, row.FromDisplayName, row.FromAvatarURL),
			HabitName: deref(row.HabitName),
		})
	}
	return result, nil
}

func (r *PostgresRepository) ListSentNudges(ctx context.Context, userID string) ([]notificationdomain.NudgeView, error) {
	return r.listNudges(ctx, "nudges.from_user_id = ?", userID)
}

func (r *PostgresRepository) ListReceivedNudges(ctx context.Context, userID string) ([]notificationdomain.NudgeView, error) {
	return r.listNudges(ctx, "nudges.to_user_id = ?", userID)
}

func (r *PostgresRepository) listNudges(ctx context.Context, where string, userID string) ([]notificationdomain.NudgeView, error) {
	type nudgeRow struct {
		ID              string    `gorm:"column:id"`
		FromUserID      string    `gorm:"column:from_user_id"`
		ToUserID        string    `gorm:"column:to_user_id"`
		HabitID         string    `gorm:"column:habit_id"`
		CreatedAt       time.Time `gorm:"column:created_at"`
		FromDisplayName *string   `gorm:"column:from_display_name"`
		FromAvatarURL   *string   `gorm:"column:from_avatar_url"`
		ToDisplayName   *string   `gorm:"column:to_display_name"`
		ToAvatarURL     *string   `gorm:"column:to_avatar_url"`
		HabitName       *string   `gorm:"column:habit_name"`
	}

	var rows []nudgeRow
	if err := r.db.WithContext(ctx).
		Table("nudges").
		Select("nudges.*, sender.display_name as from_display_name, sender.avatar_url as from_avatar_url, " +
			"recipient.display_name as to_display_name, recipient.avatar_url as to_avatar_url, habits.name as habit_name").
		Joins("left join profiles sender on sender.user_id = nudges.from_user_id").
		Joins("left join profiles recipient on recipient.user_id = nudges.to_user_id").
		Joins("left join habits on habits.id = nudges.habit_id").
		Where(where, userID).
		Order("nudges.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]notificationdomain.NudgeView, 0, len(rows))
	for _, row := range rows {
		result = append(result, notificationdomain.NudgeView{
			Nudge: notificationdomain.Nudge{
				ID:         row.ID,
				FromUserID: row.FromUserID,
				ToUserID:   row.ToUserID,
				HabitID:    row.HabitID,
				CreatedAt:  row.CreatedAt,
			},
			FromUser:  party(row.FromUserID, row.FromDisplayName, row.FromAvatarURL),
			ToUser:    party(row.ToUserID, row.ToDisplayName, row.ToAvatarURL),
			HabitName: deref(row.HabitName),
		})
	}
	return result, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, notificationID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationdomain.Notification{}).
		Where("id = ? AND to_user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func party(userID string, displayName, avatarURL *string) notificationdomain.Party {
	return notificationdomain.Party{UserID: userID, DisplayName: deref(displayName), AvatarURL: avatarURL}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
