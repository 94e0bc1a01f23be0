package calday

import (
	"testing"
	"time"
)

func TestTodayUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	if got := Format(Today(now, time.UTC)); got != "2026-03-01" {
		t.Fatalf("expected utc day 2026-03-01, got %s", got)
	}
	if got := Format(Today(now, tokyo)); got != "2026-03-02" {
		t.Fatalf("expected tokyo day 2026-03-02, got %s", got)
	}
}

func TestEndExclusive(t *testing.T) {
	day := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	end := EndExclusive(day, time.UTC)
	if !end.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}
	if !time.Date(2026, 2, 28, 23, 59, 59, 999, time.UTC).Before(end) {
		t.Fatalf("last instant of day must be before end")
	}
}

func TestTrailing(t *testing.T) {
	days := Trailing(time.Date(2026, 1, 3, 15, 0, 0, 0, time.UTC), 8)
	if len(days) != 8 {
		t.Fatalf("expected 8 days, got %d", len(days))
	}
	if Format(days[0]) != "2025-12-27" || Format(days[7]) != "2026-01-03" {
		t.Fatalf("unexpected range %s..%s", Format(days[0]), Format(days[7]))
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatalf("expected error for empty date")
	}
	if _, err := Parse("2026-13-01"); err == nil {
		t.Fatalf("expected error for bad month")
	}
	day, err := Parse(" 2026-04-05 ")
	if err != nil || Format(day) != "2026-04-05" {
		t.Fatalf("unexpected parse result %v %v", day, err)
	}
}
