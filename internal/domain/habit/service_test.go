package habit

import (
	"context"
	"errors"
	"testing"
	"time"

	"habit-rooms-go/internal/domain/calday"
	"habit-rooms-go/internal/domain/failure"
	"habit-rooms-go/internal/realtime"
	"habit-rooms-go/pkg/logger"
)

type fakeHabitRepo struct {
	habits      map[string]*Habit
	memberships []Membership
	completions []Completion
	names       map[string]string
	clock       time.Time
}

func newFakeHabitRepo() *fakeHabitRepo {
	return &fakeHabitRepo{
		habits: make(map[string]*Habit),
		names:  make(map[string]string),
		clock:  time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC),
	}
}

func (r *fakeHabitRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *fakeHabitRepo) ListHabitsByRoom(ctx context.Context, roomID string) ([]Habit, error) {
	var result []Habit
	for _, habit := range r.habits {
		if habit.RoomID == roomID {
			result = append(result, *habit)
		}
	}
	return result, nil
}

func (r *fakeHabitRepo) GetHabit(ctx context.Context, habitID string) (*Habit, error) {
	habit, ok := r.habits[habitID]
	if !ok {
		return nil, ErrHabitNotFound
	}
	copied := *habit
	return &copied, nil
}

func (r *fakeHabitRepo) CreateHabit(ctx context.Context, habit *Habit) error {
	habit.CreatedAt = r.tick()
	copied := *habit
	r.habits[habit.ID] = &copied
	return nil
}

func (r *fakeHabitRepo) ListMembersWithProfiles(ctx context.Context, habitIDs []string) ([]MemberProfile, error) {
	var result []MemberProfile
	for _, habitID := range habitIDs {
		for _, membership := range r.memberships {
			if membership.HabitID == habitID {
				result = append(result, MemberProfile{
					HabitID:     habitID,
					UserID:      membership.UserID,
					DisplayName: r.names[membership.UserID],
					JoinedAt:    membership.JoinedAt,
				})
			}
		}
	}
	return result, nil
}

func (r *fakeHabitRepo) CountCompletionsOn(ctx context.Context, habitIDs []string, day time.Time) ([]CompletionCount, error) {
	wanted := make(map[string]bool, len(habitIDs))
	for _, id := range habitIDs {
		wanted[id] = true
	}
	var result []CompletionCount
	for _, completion := range r.completions {
		if wanted[completion.HabitID] && completion.CompletionDate.Equal(day) {
			result = append(result, CompletionCount{HabitID: completion.HabitID, UserID: completion.UserID, Count: 1})
		}
	}
	return result, nil
}

func (r *fakeHabitRepo) AddMembership(ctx context.Context, membership *Membership) error {
	for _, existing := range r.memberships {
		if existing.HabitID == membership.HabitID && existing.UserID == membership.UserID {
			return ErrAlreadyJoined
		}
	}
	membership.JoinedAt = r.tick()
	r.memberships = append(r.memberships, *membership)
	return nil
}

func (r *fakeHabitRepo) DeleteMembership(ctx context.Context, habitID, userID string) error {
	kept := r.memberships[:0]
	for _, membership := range r.memberships {
		if membership.HabitID != habitID || membership.UserID != userID {
			kept = append(kept, membership)
		}
	}
	r.memberships = kept
	return nil
}

func (r *fakeHabitRepo) AddCompletion(ctx context.Context, completion *Completion) error {
	r.completions = append(r.completions, *completion)
	return nil
}

func (r *fakeHabitRepo) CompletionHistory(ctx context.Context, habitID, userID string, from, to time.Time) ([]DayCount, error) {
	counts := make(map[time.Time]int)
	for _, completion := range r.completions {
		day := completion.CompletionDate
		if completion.HabitID == habitID && completion.UserID == userID && !day.Before(from) && !day.After(to) {
			counts[day]++
		}
	}
	result := make([]DayCount, 0, len(counts))
	for day, count := range counts {
		result = append(result, DayCount{Day: day, Count: count})
	}
	return result, nil
}

type fakeRoomAccess map[string][]string

func (f fakeRoomAccess) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	for _, member := range f[roomID] {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

var today = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func newTestService(repo *fakeHabitRepo, rooms fakeRoomAccess) *Service {
	service := NewService(repo, rooms, nil, time.UTC, nil)
	service.now = func() time.Time { return today.Add(10 * time.Hour) }
	return service
}

func defaultRooms() fakeRoomAccess {
	return fakeRoomAccess{"room-1": {"user-a", "user-b"}}
}

func TestCreateHabitValidation(t *testing.T) {
	service := newTestService(newFakeHabitRepo(), defaultRooms())
	ctx := context.Background()

	cases := []struct {
		name    string
		input   CreateInput
		wantErr error
	}{
		{name: "missing name", input: CreateInput{Name: " ", Category: CategoryMind}},
		{name: "bad category", input: CreateInput{Name: "Read", Category: "work"}, wantErr: ErrInvalidCategory},
		{name: "bad type", input: CreateInput{Name: "Read", Category: CategoryMind, HabitType: "hourly"}, wantErr: ErrInvalidType},
		{name: "negative target", input: CreateInput{Name: "Read", Category: CategoryMind, TargetCount: -2}, wantErr: ErrInvalidTarget},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateHabit(ctx, "user-a", "room-1", tc.input)
			if failure.KindOf(err) != failure.KindInvalid {
				t.Fatalf("expected invalid error, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateHabitDefaults(t *testing.T) {
	repo := newFakeHabitRepo()
	service := newTestService(repo, defaultRooms())
	blank := "   "

	habit, err := service.CreateHabit(context.Background(), "user-a", "room-1", CreateInput{
		Name:        " Meditate ",
		Description: &blank,
		Category:    CategoryMind,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if habit.Name != "Meditate" || habit.HabitType != TypeDaily || habit.TargetCount != 1 {
		t.Fatalf("unexpected defaults %+v", habit)
	}
	if habit.Description != nil {
		t.Fatalf("expected blank description dropped, got %q", *habit.Description)
	}
	if habit.CreatedBy != "user-a" || habit.RoomID != "room-1" || habit.ID == "" {
		t.Fatalf("unexpected ownership %+v", habit)
	}
}

func TestCreateHabitRequiresRoomMembership(t *testing.T) {
	service := newTestService(newFakeHabitRepo(), defaultRooms())

	_, err := service.CreateHabit(context.Background(), "user-z", "room-1", CreateInput{Name: "Run", Category: CategoryHealth})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinHabitTwiceConflicts(t *testing.T) {
	repo := newFakeHabitRepo()
	service := newTestService(repo, defaultRooms())
	ctx := context.Background()

	habit := mustCreateHabit(t, service, 8)
	if err := service.JoinHabit(ctx, "user-b", habit.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	err := service.JoinHabit(ctx, "user-b", habit.ID)
	if !errors.Is(err, ErrAlreadyJoined) || failure.KindOf(err) != failure.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestHabitsHiddenOutsideRoom(t *testing.T) {
	repo := newFakeHabitRepo()
	service := newTestService(repo, defaultRooms())
	ctx := context.Background()

	habit := mustCreateHabit(t, service, 1)
	if err := service.JoinHabit(ctx, "user-z", habit.ID); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
	if _, err := service.ListHabits(ctx, "user-z", "room-1", today); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestListHabitsCountsPerMemberUnclamped(t *testing.T) {
	repo := newFakeHabitRepo()
	repo.names["user-a"] = "Ada"
	service := newTestService(repo, defaultRooms())
	ctx := context.Background()

	habit := mustCreateHabit(t, service, 2)
	for _, userID := range []string{"user-a", "user-b"} {
		if err := service.JoinHabit(ctx, userID, habit.ID); err != nil {
			t.Fatalf("join %s: %v", userID, err)
		}
	}
	completeTimes(t, service, "user-a", habit.ID, 5)
	completeTimes(t, service, "user-b", habit.ID, 1)

	views, err := service.ListHabits(ctx, "user-a", "room-1", today)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(views))
	}
	view := views[0]
	if !view.IsJoined || !view.IsCreator || view.MyCompletions != 5 {
		t.Fatalf("unexpected flags %+v", view)
	}
	if len(view.Members) != 2 || view.Members[0].DisplayName != "Ada" || view.Members[1].DisplayName != anonymousName {
		t.Fatalf("unexpected members %+v", view.Members)
	}
	if view.Members[0].Completions != 5 {
		t.Fatalf("expected raw count 5, got %d", view.Members[0].Completions)
	}

	if got := CollectiveProgress(views); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	if got := CompletedToday(views); got != 1 {
		t.Fatalf("expected 1 completed, got %d", got)
	}

	yesterday, err := service.ListHabits(ctx, "user-a", "room-1", today.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("list yesterday: %v", err)
	}
	if yesterday[0].MyCompletions != 0 {
		t.Fatalf("expected no completions yesterday, got %d", yesterday[0].MyCompletions)
	}
}

func TestCollectiveProgressSkipsUnjoinedHabits(t *testing.T) {
	views := []View{
		{Habit: Habit{TargetCount: 4}, IsJoined: true, Members: []MemberProgress{{Completions: 4}}},
		{Habit: Habit{TargetCount: 4}, IsJoined: false, Members: []MemberProgress{{Completions: 0}}},
	}
	if got := CollectiveProgress(views); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := JoinedCount(views); got != 1 {
		t.Fatalf("expected 1 joined, got %d", got)
	}
}

func TestCompleteHabitRejectsOtherDays(t *testing.T) {
	repo := newFakeHabitRepo()
	service := newTestService(repo, defaultRooms())
	habit := mustCreateHabit(t, service, 1)

	yesterday := today.AddDate(0, 0, -1)
	_, err := service.CompleteHabit(context.Background(), "user-a", habit.ID, &yesterday)
	if !errors.Is(err, ErrNotToday) {
		t.Fatalf("expected ErrNotToday, got %v", err)
	}
	if len(repo.completions) != 0 {
		t.Fatalf("expected no completion stored")
	}

	viewed := today
	completion, err := service.CompleteHabit(context.Background(), "user-a", habit.ID, &viewed)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !completion.CompletionDate.Equal(today) {
		t.Fatalf("expected today's date, got %v", completion.CompletionDate)
	}
}

func TestCompleteHabitUsesConfiguredZone(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*3600)
	repo := newFakeHabitRepo()
	service := NewService(repo, defaultRooms(), nil, zone, nil)
	service.now = func() time.Time { return today.Add(2 * time.Hour) }
	habit := mustCreateHabit(t, service, 1)

	completion, err := service.CompleteHabit(context.Background(), "user-a", habit.ID, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := today.AddDate(0, 0, -1); !completion.CompletionDate.Equal(want) {
		t.Fatalf("expected %s, got %s", calday.Format(want), calday.Format(completion.CompletionDate))
	}
}

func TestLeaveHabitPreservesHistory(t *testing.T) {
	repo := newFakeHabitRepo()
	service := newTestService(repo, defaultRooms())
	ctx := context.Background()

	habit := mustCreateHabit(t, service, 8)
	if err := service.JoinHabit(ctx, "user-b", habit.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	completeTimes(t, service, "user-b", habit.ID, 3)

	from := today.AddDate(0, 0, -2)
	before, err := service.CompletionHistory(ctx, "user-b", habit.ID, from, today)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if err := service.LeaveHabit(ctx, "user-b", habit.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	after, err := service.CompletionHistory(ctx, "user-b", habit.ID, from, today)
	if err != nil {
		t.Fatalf("history after leave: %v", err)
	}

	if len(before) != 3 || len(after) != 3 {
		t.Fatalf("expected 3 dense days, got %d and %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("history changed on %s: %+v -> %+v", calday.Format(before[i].Day), before[i], after[i])
		}
	}
	if before[2].Count != 3 || before[0].Count != 0 {
		t.Fatalf("unexpected history %+v", before)
	}
}

func TestWritesRunChangeHooksBeforeReturning(t *testing.T) {
	hub := realtime.NewHub(4, logger.Discard())
	defer hub.Close()

	var seen []realtime.Event
	hub.OnChange(func(event realtime.Event) {
		seen = append(seen, event)
	})

	service := NewService(newFakeHabitRepo(), defaultRooms(), hub, time.UTC, nil)
	service.now = func() time.Time { return today.Add(10 * time.Hour) }
	ctx := context.Background()

	habit := mustCreateHabit(t, service, 2)
	if len(seen) != 1 || seen[0].Table != realtime.TableHabits {
		t.Fatalf("expected habit event on return, got %+v", seen)
	}
	if err := service.JoinHabit(ctx, "user-b", habit.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.CompleteHabit(ctx, "user-b", habit.ID, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := service.LeaveHabit(ctx, "user-b", habit.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}

	want := []realtime.Table{
		realtime.TableHabits,
		realtime.TableHabitMemberships,
		realtime.TableHabitCompletions,
		realtime.TableHabitMemberships,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(seen))
	}
	for i, event := range seen {
		if event.Table != want[i] || event.RoomID != "room-1" {
			t.Fatalf("event %d: expected %s in room-1, got %+v", i, want[i], event)
		}
	}
	if !seen[2].Concerns("user-b") {
		t.Fatalf("expected completion event addressed to user-b, got %+v", seen[2])
	}
}

func TestCompletionHistoryRejectsBadRange(t *testing.T) {
	service := newTestService(newFakeHabitRepo(), defaultRooms())
	habit := mustCreateHabit(t, service, 1)

	_, err := service.CompletionHistory(context.Background(), "user-a", habit.ID, today, today.AddDate(0, 0, -1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func mustCreateHabit(t *testing.T, service *Service, target int) *Habit {
	t.Helper()
	habit, err := service.CreateHabit(context.Background(), "user-a", "room-1", CreateInput{
		Name:        "Drink Water",
		Category:    CategoryHealth,
		TargetCount: target,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return habit
}

func completeTimes(t *testing.T, service *Service, userID, habitID string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		if _, err := service.CompleteHabit(context.Background(), userID, habitID, nil); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
}
