package user

import "context"

type Repository interface {
	// EnsureProfile inserts profile when missing and refreshes its email
	// otherwise. DisplayName is only written on insert.
	EnsureProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
