package user

import (
	"context"
	"errors"
	"time"

	userdomain "habit-rooms-go/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureProfile(ctx context.Context, profile *userdomain.Profile) error {
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}
	if profile.Email != nil {
		conflict = clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email":      profile.Email,
				"updated_at": time.Now().UTC(),
			}),
		}
	}

	return r.db.WithContext(ctx).Clauses(conflict).Create(profile).Error
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*userdomain.Profile, error) {
	var profile userdomain.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, userID string, update userdomain.ProfileUpdate) (*userdomain.Profile, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if update.DisplayName != nil {
		updates["display_name"] = *update.DisplayName
	}
	if update.AvatarURL != nil {
		if *update.AvatarURL == "" {
			updates["avatar_url"] = nil
		} else {
			updates["avatar_url"] = *update.AvatarURL
		}
	}

	result := r.db.WithContext(ctx).
		Model(&userdomain.Profile{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, userdomain.ErrProfileNotFound
	}
	return r.GetProfile(ctx, userID)
}
