package progress

import "time"

// Contribution is one (habit, member) pair on one day.
type Contribution struct {
	Target int
	Count  int
}

// Totals accumulates clamped completions against possible completions.
type Totals struct {
	Achieved int
	Possible int
}

func (t *Totals) Add(c Contribution) {
	if c.Target < 1 {
		return
	}
	count := c.Count
	if count < 0 {
		count = 0
	}
	if count > c.Target {
		count = c.Target
	}
	t.Possible += c.Target
	t.Achieved += count
}

func (t *Totals) Merge(other Totals) {
	t.Achieved += other.Achieved
	t.Possible += other.Possible
}

// Percentage is 100 * Achieved / Possible, or 0 when nothing was possible.
func (t Totals) Percentage() float64 {
	if t.Possible == 0 {
		return 0
	}
	return 100 * float64(t.Achieved) / float64(t.Possible)
}

func Percentage(contributions []Contribution) float64 {
	var totals Totals
	for _, c := range contributions {
		totals.Add(c)
	}
	return totals.Percentage()
}

type HabitTarget struct {
	ID          string
	TargetCount int
	CreatedAt   time.Time
}

type Membership struct {
	HabitID  string
	UserID   string
	JoinedAt time.Time
}

type CompletionCount struct {
	HabitID string
	UserID  string
	Count   int
}

type DayPercentage struct {
	Day        time.Time
	Percentage float64
}
