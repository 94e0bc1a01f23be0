package progress

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"habit-rooms-go/internal/domain/calday"
	"habit-rooms-go/internal/domain/failure"
	"habit-rooms-go/pkg/logger"
)

const (
	defaultCalendarDays = 8
	maxCalendarDays     = 31
	weekDays            = 7
)

type Service struct {
	repo         Repository
	rooms        RoomLister
	cache        Cache
	log          logger.Logger
	loc          *time.Location
	calendarDays int
	now          func() time.Time
}

func NewService(repo Repository, rooms RoomLister, cache Cache, loc *time.Location, calendarDays int, log logger.Logger) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if calendarDays <= 0 {
		calendarDays = defaultCalendarDays
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:         repo,
		rooms:        rooms,
		cache:        cache,
		log:          log.With("component", "progress"),
		loc:          loc,
		calendarDays: calendarDays,
		now:          time.Now,
	}
}

func (s *Service) Today() time.Time {
	return calday.Today(s.now(), s.loc)
}

// Invalidate marks every cached day dirty. Called on change events for the
// tables the percentages are derived from.
func (s *Service) Invalidate() {
	s.cache.MarkDirty()
}

// DailyCompletionPercentage is the clamped completion ratio over the habits
// and memberships of roomIDs that existed by the end of day.
func (s *Service) DailyCompletionPercentage(ctx context.Context, roomIDs []string, day time.Time) (float64, error) {
	totals, err := s.dayTotals(ctx, roomIDs, calday.Of(day))
	if err != nil {
		return 0, err
	}
	return totals.Percentage(), nil
}

// Daily is DailyCompletionPercentage over every room userID belongs to.
func (s *Service) Daily(ctx context.Context, userID string, day time.Time) (float64, error) {
	roomIDs, err := s.rooms.RoomIDsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.DailyCompletionPercentage(ctx, roomIDs, day)
}

// Calendar returns one percentage per day for the trailing days ending today,
// oldest first. days <= 0 selects the configured default.
func (s *Service) Calendar(ctx context.Context, userID string, days int) ([]DayPercentage, error) {
	if days <= 0 {
		days = s.calendarDays
	}
	if days > maxCalendarDays {
		return nil, failure.Invalid(fmt.Sprintf("calendar is limited to %d days", maxCalendarDays))
	}

	roomIDs, err := s.rooms.RoomIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dates := calday.Trailing(s.Today(), days)
	totals, err := s.totalsForDays(ctx, roomIDs, dates)
	if err != nil {
		return nil, err
	}

	result := make([]DayPercentage, len(dates))
	for i, day := range dates {
		result[i] = DayPercentage{Day: day, Percentage: totals[i].Percentage()}
	}
	return result, nil
}

// WeeklyPercentage sums possible and achieved completions over the seven days
// ending at weekEnd.
func (s *Service) WeeklyPercentage(ctx context.Context, roomIDs []string, weekEnd time.Time) (float64, error) {
	perDay, err := s.totalsForDays(ctx, roomIDs, calday.Trailing(weekEnd, weekDays))
	if err != nil {
		return 0, err
	}
	var week Totals
	for _, totals := range perDay {
		week.Merge(totals)
	}
	return week.Percentage(), nil
}

func (s *Service) Weekly(ctx context.Context, userID string, weekEnd time.Time) (float64, error) {
	roomIDs, err := s.rooms.RoomIDsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.WeeklyPercentage(ctx, roomIDs, weekEnd)
}

// totalsForDays computes each day independently and concurrently.
func (s *Service) totalsForDays(ctx context.Context, roomIDs []string, dates []time.Time) ([]Totals, error) {
	result := make([]Totals, len(dates))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, day := range dates {
		i, day := i, day
		group.Go(func() error {
			totals, err := s.dayTotals(groupCtx, roomIDs, day)
			if err != nil {
				return err
			}
			result[i] = totals
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) dayTotals(ctx context.Context, roomIDs []string, day time.Time) (Totals, error) {
	if len(roomIDs) == 0 {
		return Totals{}, nil
	}

	key := cacheKey(roomIDs, day)
	if totals, ok := s.cache.Get(key); ok {
		return totals, nil
	}
	generation := s.cache.Generation()

	before := calday.EndExclusive(day, s.loc)
	habits, err := s.repo.ListHabitsCreatedBefore(ctx, roomIDs, before)
	if err != nil {
		return Totals{}, err
	}
	if len(habits) == 0 {
		s.cache.Set(key, generation, Totals{})
		return Totals{}, nil
	}

	ids := make([]string, 0, len(habits))
	for _, habit := range habits {
		ids = append(ids, habit.ID)
	}
	memberships, err := s.repo.ListMembershipsJoinedBefore(ctx, ids, before)
	if err != nil {
		return Totals{}, err
	}
	counts, err := s.repo.CountCompletionsOn(ctx, ids, day)
	if err != nil {
		return Totals{}, err
	}

	totals := Compute(habits, memberships, counts, before)
	s.cache.Set(key, generation, totals)
	s.log.Debug("progress.day: computed", "day", calday.Format(day), "rooms", len(roomIDs),
		"achieved", totals.Achieved, "possible", totals.Possible)
	return totals, nil
}

// Compute sums one day's contributions. Habits created and memberships joined
// at or after before did not exist on that day and are skipped.
func Compute(habits []HabitTarget, memberships []Membership, counts []CompletionCount, before time.Time) Totals {
	targets := make(map[string]int, len(habits))
	for _, habit := range habits {
		if !habit.CreatedAt.Before(before) {
			continue
		}
		targets[habit.ID] = habit.TargetCount
	}

	countByKey := make(map[string]int, len(counts))
	for _, count := range counts {
		countByKey[count.HabitID+"/"+count.UserID] += count.Count
	}

	var totals Totals
	for _, membership := range memberships {
		target, ok := targets[membership.HabitID]
		if !ok || !membership.JoinedAt.Before(before) {
			continue
		}
		totals.Add(Contribution{
			Target: target,
			Count:  countByKey[membership.HabitID+"/"+membership.UserID],
		})
	}
	return totals
}

func cacheKey(roomIDs []string, day time.Time) string {
	sorted := append([]string(nil), roomIDs...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + "@" + calday.Format(day)
}
