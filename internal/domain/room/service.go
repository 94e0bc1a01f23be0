package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"habit-rooms-go/internal/domain/failure"
	"habit-rooms-go/internal/realtime"
	"habit-rooms-go/pkg/logger"
)

const (
	roomNameMaxLength = 60
	inviteCodeRetries = 5
	anonymousName     = "Anonymous"
)

type Service struct {
	repo       Repository
	selections SelectionStore
	events     realtime.Publisher
	log        logger.Logger
	newCode    func() (string, error)
}

func NewService(repo Repository, selections SelectionStore, events realtime.Publisher, log logger.Logger) *Service {
	if selections == nil {
		selections = noopSelections{}
	}
	if events == nil {
		events = realtime.Discard{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:       repo,
		selections: selections,
		events:     events,
		log:        log.With("component", "rooms"),
		newCode:    GenerateInviteCode,
	}
}

// ListRooms returns every room userID belongs to, oldest membership first.
func (s *Service) ListRooms(ctx context.Context, userID string) ([]Details, error) {
	rooms, err := s.repo.ListRoomsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withMembers(ctx, userID, rooms)
}

func (s *Service) RoomIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rooms, err := s.repo.ListRoomsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	return ids, nil
}

func (s *Service) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	return s.repo.IsMember(ctx, roomID, userID)
}

// GetRoom returns roomID if userID is a member. Rooms the user is not in are
// reported as missing.
func (s *Service) GetRoom(ctx context.Context, userID, roomID string) (*Details, error) {
	member, err := s.repo.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrRoomNotFound
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	details, err := s.withMembers(ctx, userID, []Room{*room})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *Service) CreateRoom(ctx context.Context, userID, name string) (*Details, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, failure.Invalid("name is required")
	}
	if len([]rune(name)) > roomNameMaxLength {
		return nil, failure.Invalid(fmt.Sprintf("name must be at most %d characters", roomNameMaxLength))
	}

	room, err := s.insertRoom(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	s.events.Publish(realtime.Changed(realtime.TableRooms, realtime.OpInsert, room.ID).InRoom(room.ID).For(userID))

	member := RoomMember{RoomID: room.ID, UserID: userID}
	if err := s.repo.AddMember(ctx, &member); err != nil {
		s.log.Critical("rooms.create: creator membership failed, room left without members",
			"room_id", room.ID, "user_id", userID, "err", err)
		return nil, fmt.Errorf("%w: room %s: %w", ErrOrphanedRoom, room.ID, err)
	}
	s.events.Publish(realtime.Changed(realtime.TableRoomMembers, realtime.OpInsert, room.ID).InRoom(room.ID).For(userID))

	s.log.Info("rooms.create: room created", "room_id", room.ID, "user_id", userID)
	return s.GetRoom(ctx, userID, room.ID)
}

func (s *Service) insertRoom(ctx context.Context, userID, name string) (*Room, error) {
	for attempt := 1; attempt <= inviteCodeRetries; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}

		room := Room{
			ID:         uuid.NewString(),
			Name:       name,
			InviteCode: code,
			CreatedBy:  userID,
		}
		err = s.repo.CreateRoom(ctx, &room)
		if err == nil {
			return &room, nil
		}
		if !errors.Is(err, ErrInviteCodeTaken) {
			return nil, err
		}
		s.log.Debug("rooms.create: invite code collision", "attempt", attempt)
	}
	return nil, ErrCodeGenerationFailed
}

// JoinRoom adds userID to the room whose invite code matches code. The
// capacity check here is advisory; the storage layer has the final word and
// reports ErrRoomFull when concurrent joins race past it.
func (s *Service) JoinRoom(ctx context.Context, userID, code string) (*Details, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, failure.Invalid("code is required")
	}
	if !IsWellFormedCode(code) {
		return nil, ErrInvalidCode
	}

	if lookup, err := s.repo.LookupCode(ctx, code); err != nil {
		s.log.Warn("rooms.join: code lookup failed", "code", code, "err", err)
	} else {
		s.log.Debug("rooms.join: code lookup", "code", code, "found", lookup.Found,
			"room_id", lookup.RoomID, "member_count", lookup.MemberCount)
	}

	room, err := s.repo.GetRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	member, err := s.repo.IsMember(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	count, err := s.repo.CountMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if count >= MaxMembers {
		return nil, ErrRoomFull
	}

	if err := s.repo.AddMember(ctx, &RoomMember{RoomID: room.ID, UserID: userID}); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.Changed(realtime.TableRoomMembers, realtime.OpInsert, room.ID).InRoom(room.ID).For(userID))

	s.log.Info("rooms.join: joined room", "room_id", room.ID, "user_id", userID)
	return s.GetRoom(ctx, userID, room.ID)
}

// LeaveRoom removes the membership. Leaving a room the user is not in is a
// no-op, and ownership is never reassigned.
func (s *Service) LeaveRoom(ctx context.Context, userID, roomID string) error {
	if err := s.repo.DeleteMember(ctx, roomID, userID); err != nil {
		return err
	}
	if selected, ok := s.selections.Get(userID); ok && selected == roomID {
		s.selections.Delete(userID)
	}
	s.events.Publish(realtime.Changed(realtime.TableRoomMembers, realtime.OpDelete, roomID).InRoom(roomID).For(userID))
	return nil
}

// CurrentRoom returns the room userID has selected, falling back to the
// first room they belong to.
func (s *Service) CurrentRoom(ctx context.Context, userID string) (*Details, error) {
	rooms, err := s.ListRooms(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		s.selections.Delete(userID)
		return nil, ErrNoRooms
	}

	if selected, ok := s.selections.Get(userID); ok {
		for i := range rooms {
			if rooms[i].ID == selected {
				return &rooms[i], nil
			}
		}
		s.selections.Delete(userID)
	}
	return &rooms[0], nil
}

func (s *Service) SetCurrentRoom(ctx context.Context, userID, roomID string) (*Details, error) {
	room, err := s.GetRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	s.selections.Set(userID, roomID)
	return room, nil
}

// ClearSelection forgets userID's selected room, e.g. on sign-out.
func (s *Service) ClearSelection(userID string) {
	s.selections.Delete(userID)
}

func (s *Service) withMembers(ctx context.Context, userID string, rooms []Room) ([]Details, error) {
	result := make([]Details, 0, len(rooms))
	if len(rooms) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	members, err := s.repo.ListMembersWithProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[string][]MemberProfile, len(rooms))
	for _, member := range members {
		if strings.TrimSpace(member.DisplayName) == "" {
			member.DisplayName = anonymousName
		}
		byRoom[member.RoomID] = append(byRoom[member.RoomID], member)
	}

	for _, room := range rooms {
		roomMembers := byRoom[room.ID]
		if roomMembers == nil {
			roomMembers = []MemberProfile{}
		}
		result = append(result, Details{
			Room:        room,
			Members:     roomMembers,
			MemberCount: len(roomMembers),
			IsCreator:   room.CreatedBy == userID,
		})
	}
	return result, nil
}
