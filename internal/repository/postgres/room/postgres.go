package room

import (
	"context"
	"errors"
	"strings"
	"time"

	roomdomain "habit-rooms-go/internal/domain/room"
	"habit-rooms-go/internal/repository/postgres/pgerr"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListRoomsByUser(ctx context.Context, userID string) ([]roomdomain.Room, error) {
	var rooms []roomdomain.Room
	if err := r.db.WithContext(ctx).
		Table("rooms").
		Select("rooms.*").
		Joins("join room_members on room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("room_members.joined_at asc, rooms.id asc").
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *PostgresRepository) GetRoom(ctx context.Context, roomID string) (*roomdomain.Room, error) {
	var room roomdomain.Room
	if err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roomdomain.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *PostgresRepository) GetRoomByCode(ctx context.Context, code string) (*roomdomain.Room, error) {
	var room roomdomain.Room
	if err := r.db.WithContext(ctx).
		Where("upper(invite_code) = ?", strings.ToUpper(code)).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roomdomain.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *PostgresRepository) LookupCode(ctx context.Context, code string) (*roomdomain.CodeLookup, error) {
	type lookupRow struct {
		RoomFound   bool   `gorm:"column:room_found"`
		RoomID      string `gorm:"column:room_id"`
		RoomName    string `gorm:"column:room_name"`
		MemberCount int    `gorm:"column:member_count"`
	}

	var rows []lookupRow
	if err := r.db.WithContext(ctx).
		Raw("select room_found, room_id, room_name, member_count from debug_room_lookup(?)", code).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &roomdomain.CodeLookup{}, nil
	}
	return &roomdomain.CodeLookup{
		Found:       rows[0].RoomFound,
		RoomID:      rows[0].RoomID,
		RoomName:    rows[0].RoomName,
		MemberCount: rows[0].MemberCount,
	}, nil
}

func (r *PostgresRepository) ListMembersWithProfiles(ctx context.Context, roomIDs []string) ([]roomdomain.MemberProfile, error) {
	if len(roomIDs) == 0 {
		return []roomdomain.MemberProfile{}, nil
	}

	type memberRow struct {
		RoomID      string    `gorm:"column:room_id"`
		UserID      string    `gorm:"column:user_id"`
		JoinedAt    time.Time `gorm:"column:joined_at"`
		DisplayName *string   `gorm:"column:display_name"`
		AvatarURL   *string   `gorm:"column:avatar_url"`
	}

	var rows []memberRow
	if err := r.db.WithContext(ctx).
		Table("room_members").
		Select("room_members.room_id, room_members.user_id, room_members.joined_at, profiles.display_name, profiles.avatar_url").
		Joins("left join profiles on profiles.user_id = room_members.user_id").
		Where("room_members.room_id IN ?", roomIDs).
		Order("room_members.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]roomdomain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		member := roomdomain.MemberProfile{
			RoomID:    row.RoomID,
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

func (r *PostgresRepository) CreateRoom(ctx context.Context, room *roomdomain.Room) error {
	err := r.db.WithContext(ctx).Create(room).Error
	if pgerr.IsUniqueViolation(err) {
		return roomdomain.ErrInviteCodeTaken
	}
	return err
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *roomdomain.RoomMember) error {
	err := r.db.WithContext(ctx).Create(member).Error
	switch {
	case pgerr.IsUniqueViolation(err):
		return roomdomain.ErrAlreadyMember
	case pgerr.IsRoomFull(err):
		return roomdomain.ErrRoomFull
	default:
		return err
	}
}

func (r *PostgresRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&roomdomain.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CountMembers(ctx context.Context, roomID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&roomdomain.RoomMember{}).
		Where("room_id = ?", roomID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, roomID, userID string) error {
	return r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&roomdomain.RoomMember{}).Error
}
