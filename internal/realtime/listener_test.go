package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
)

func newTestListener() *Listener {
	l := NewListener("postgres://unused", "table_changes", time.Millisecond, 5*time.Millisecond, Discard{}, nil)
	l.retryInitial = time.Millisecond
	return l
}

func TestListenRetriesUntilAccepted(t *testing.T) {
	l := newTestListener()

	calls := 0
	err := l.listen(context.Background(), func(channel string) error {
		calls++
		if channel != "table_changes" {
			t.Fatalf("unexpected channel %q", channel)
		}
		if calls < 3 {
			return errors.New("permission denied")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestListenTreatsOpenChannelAsListening(t *testing.T) {
	l := newTestListener()

	calls := 0
	err := l.listen(context.Background(), func(string) error {
		calls++
		return pq.ErrChannelAlreadyOpen
	})
	if err != nil || calls != 1 {
		t.Fatalf("expected one successful attempt, got %d, %v", calls, err)
	}
}

func TestListenStopsWithContext(t *testing.T) {
	l := newTestListener()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := l.listen(ctx, func(string) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
