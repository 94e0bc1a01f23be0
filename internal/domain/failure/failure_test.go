package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	sentinel := New(KindCapacityExceeded, "room is full")
	wrapped := fmt.Errorf("join room: %w", sentinel)

	if got := KindOf(wrapped); got != KindCapacityExceeded {
		t.Fatalf("expected capacity kind, got %s", got)
	}
	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
}

func TestKindOfUnclassifiedIsRemote(t *testing.T) {
	if got := KindOf(errors.New("connection reset")); got != KindRemote {
		t.Fatalf("expected remote kind, got %s", got)
	}
}

func TestIsBusiness(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{err: ErrAuthRequired, want: true},
		{err: Invalid("name is required"), want: true},
		{err: New(KindConflict, "already a member"), want: true},
		{err: ErrNetworkUnavailable, want: false},
		{err: errors.New("boom"), want: false},
	}

	for _, tc := range cases {
		if got := IsBusiness(tc.err); got != tc.want {
			t.Fatalf("IsBusiness(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
