package habit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"habit-rooms-go/internal/domain/calday"
	"habit-rooms-go/internal/domain/failure"
	"habit-rooms-go/internal/domain/progress"
	"habit-rooms-go/internal/realtime"
	"habit-rooms-go/pkg/logger"
)

const (
	habitNameMaxLength = 100
	maxHistoryDays     = 366
	anonymousName      = "Anonymous"
)

type Service struct {
	repo   Repository
	rooms  RoomAccess
	events realtime.Publisher
	log    logger.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewService(repo Repository, rooms RoomAccess, events realtime.Publisher, loc *time.Location, log logger.Logger) *Service {
	if events == nil {
		events = realtime.Discard{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:   repo,
		rooms:  rooms,
		events: events,
		log:    log.With("component", "habits"),
		loc:    loc,
		now:    time.Now,
	}
}

// Today is the current calendar day in the service's time zone.
func (s *Service) Today() time.Time {
	return calday.Today(s.now(), s.loc)
}

// ListHabits returns the room's habits with every member's completion count
// for day.
func (s *Service) ListHabits(ctx context.Context, userID, roomID string, day time.Time) ([]View, error) {
	if err := s.requireRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	habits, err := s.repo.ListHabitsByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(habits))
	if len(habits) == 0 {
		return views, nil
	}

	ids := make([]string, 0, len(habits))
	for _, habit := range habits {
		ids = append(ids, habit.ID)
	}

	members, err := s.repo.ListMembersWithProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountCompletionsOn(ctx, ids, calday.Of(day))
	if err != nil {
		return nil, err
	}

	countByKey := make(map[string]int, len(counts))
	for _, count := range counts {
		countByKey[count.HabitID+"/"+count.UserID] += count.Count
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	membersByHabit := make(map[string][]MemberProgress, len(habits))
	for _, member := range members {
		name := member.DisplayName
		if strings.TrimSpace(name) == "" {
			name = anonymousName
		}
		membersByHabit[member.HabitID] = append(membersByHabit[member.HabitID], MemberProgress{
			UserID:      member.UserID,
			DisplayName: name,
			AvatarURL:   member.AvatarURL,
			Completions: countByKey[member.HabitID+"/"+member.UserID],
		})
	}

	for _, habit := range habits {
		view := View{
			Habit:         habit,
			Members:       membersByHabit[habit.ID],
			IsCreator:     habit.CreatedBy == userID,
			MyCompletions: countByKey[habit.ID+"/"+userID],
		}
		if view.Members == nil {
			view.Members = []MemberProgress{}
		}
		for _, member := range view.Members {
			if member.UserID == userID {
				view.IsJoined = true
				break
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) CreateHabit(ctx context.Context, userID, roomID string, input CreateInput) (*Habit, error) {
	habit, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	habit.ID = uuid.NewString()
	habit.RoomID = roomID
	habit.CreatedBy = userID
	if err := s.repo.CreateHabit(ctx, habit); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.Changed(realtime.TableHabits, realtime.OpInsert, habit.ID).InRoom(roomID))

	s.log.Info("habits.create: habit created", "habit_id", habit.ID, "room_id", roomID, "user_id", userID)
	return habit, nil
}

func (s *Service) JoinHabit(ctx context.Context, userID, habitID string) error {
	habit, err := s.visibleHabit(ctx, userID, habitID)
	if err != nil {
		return err
	}

	membership := Membership{ID: uuid.NewString(), HabitID: habitID, UserID: userID}
	if err := s.repo.AddMembership(ctx, &membership); err != nil {
		return err
	}
	s.events.Publish(realtime.Changed(realtime.TableHabitMemberships, realtime.OpInsert, habitID).InRoom(habit.RoomID).For(userID))
	return nil
}

// LeaveHabit removes the membership and keeps every completion row.
func (s *Service) LeaveHabit(ctx context.Context, userID, habitID string) error {
	habit, err := s.visibleHabit(ctx, userID, habitID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMembership(ctx, habitID, userID); err != nil {
		return err
	}
	s.events.Publish(realtime.Changed(realtime.TableHabitMemberships, realtime.OpDelete, habitID).InRoom(habit.RoomID).For(userID))
	return nil
}

// CompleteHabit records one completion stamped with today's date. viewedDay,
// when set, is the day the caller is looking at; anything but today is
// rejected.
func (s *Service) CompleteHabit(ctx context.Context, userID, habitID string, viewedDay *time.Time) (*Completion, error) {
	now := s.now()
	today := calday.Today(now, s.loc)
	if viewedDay != nil && !calday.Equal(*viewedDay, today) {
		return nil, ErrNotToday
	}

	habit, err := s.visibleHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	completion := Completion{
		ID:             uuid.NewString(),
		HabitID:        habitID,
		UserID:         userID,
		CompletionDate: today,
		CompletedAt:    now.UTC(),
	}
	if err := s.repo.AddCompletion(ctx, &completion); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.Changed(realtime.TableHabitCompletions, realtime.OpInsert, habitID).InRoom(habit.RoomID).For(userID))
	return &completion, nil
}

// CompletionHistory returns the caller's raw completion count for every day
// in [from, to], including days with none.
func (s *Service) CompletionHistory(ctx context.Context, userID, habitID string, from, to time.Time) ([]DayCount, error) {
	from, to = calday.Of(from), calday.Of(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if int(to.Sub(from).Hours()/24) >= maxHistoryDays {
		return nil, failure.Invalid(fmt.Sprintf("history is limited to %d days", maxHistoryDays))
	}

	if _, err := s.visibleHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	rows, err := s.repo.CompletionHistory(ctx, habitID, userID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[time.Time]int, len(rows))
	for _, row := range rows {
		byDay[calday.Of(row.Day)] += row.Count
	}

	result := make([]DayCount, 0, len(byDay))
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		result = append(result, DayCount{Day: day, Count: byDay[day]})
	}
	return result, nil
}

// CompletedToday counts joined habits where the viewer met the target.
func CompletedToday(views []View) int {
	completed := 0
	for _, view := range views {
		if view.IsJoined && view.MyCompletions >= view.TargetCount {
			completed++
		}
	}
	return completed
}

func JoinedCount(views []View) int {
	joined := 0
	for _, view := range views {
		if view.IsJoined {
			joined++
		}
	}
	return joined
}

// CollectiveProgress is the clamped completion percentage over the habits the
// viewer joined, counting every member of those habits.
func CollectiveProgress(views []View) float64 {
	contributions := make([]progress.Contribution, 0, len(views))
	for _, view := range views {
		if !view.IsJoined {
			continue
		}
		for _, member := range view.Members {
			contributions = append(contributions, progress.Contribution{
				Target: view.TargetCount,
				Count:  member.Completions,
			})
		}
	}
	return progress.Percentage(contributions)
}

func (s *Service) validate(input CreateInput) (*Habit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, failure.Invalid("name is required")
	}
	if len([]rune(name)) > habitNameMaxLength {
		return nil, failure.Invalid(fmt.Sprintf("name must be at most %d characters", habitNameMaxLength))
	}
	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	habitType := input.HabitType
	if habitType == "" {
		habitType = TypeDaily
	}
	if !habitType.Valid() {
		return nil, ErrInvalidType
	}

	target := input.TargetCount
	if target == 0 {
		target = 1
	}
	if target < 1 {
		return nil, ErrInvalidTarget
	}

	var description *string
	if input.Description != nil {
		if trimmed := strings.TrimSpace(*input.Description); trimmed != "" {
			description = &trimmed
		}
	}

	return &Habit{
		Name:        name,
		Description: description,
		Category:    input.Category,
		HabitType:   habitType,
		TargetCount: target,
	}, nil
}

func (s *Service) requireRoom(ctx context.Context, roomID, userID string) error {
	member, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrRoomNotFound
	}
	return nil
}

// visibleHabit loads habitID if userID belongs to its room.
func (s *Service) visibleHabit(ctx context.Context, userID, habitID string) (*Habit, error) {
	habit, err := s.repo.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	member, err := s.rooms.IsMember(ctx, habit.RoomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrHabitNotFound
	}
	return habit, nil
}
