package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"habit-rooms-go/internal/domain/failure"
	"habit-rooms-go/pkg/logger"
)

const (
	displayNameMaxLength = 50
	fallbackDisplayName  = "User"
)

// RetryPolicy bounds profile update attempts. The wait before retry n is
// n times Backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	return backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: p.Backoff}, uint64(p.Attempts-1)), ctx)
}

type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

type Service struct {
	repo   Repository
	pinger Pinger
	retry  RetryPolicy
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, pinger Pinger, retry RetryPolicy, log logger.Logger) *Service {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:   repo,
		pinger: pinger,
		retry:  retry,
		log:    log.With("component", "profiles"),
		now:    time.Now,
	}
}

// EnsureProfile creates the caller's profile on first sight. The display name
// comes from the provider metadata, then the email's local part, then "User".
func (s *Service) EnsureProfile(ctx context.Context, identity Identity) (*Profile, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	displayName := DefaultDisplayName(identity)
	profile := Profile{UserID: identity.UserID, DisplayName: &displayName}
	if identity.Email != "" {
		email := identity.Email
		profile.Email = &email
	}
	if identity.AvatarURL != "" {
		avatar := identity.AvatarURL
		profile.AvatarURL = &avatar
	}

	if err := s.repo.EnsureProfile(ctx, &profile); err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, identity.UserID)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile checks connectivity and the session before writing, then
// retries the write a bounded number of times. Validation and not-found
// failures are not retried.
func (s *Service) UpdateProfile(ctx context.Context, session Session, update ProfileUpdate) (*Profile, error) {
	update, err := normalizeUpdate(update)
	if err != nil {
		return nil, err
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			s.log.Warn("profiles.update: backend unreachable", "err", err)
			return nil, fmt.Errorf("%w: %v", failure.ErrNetworkUnavailable, err)
		}
	}
	if session.UserID == "" || (!session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt)) {
		return nil, failure.ErrAuthRequired
	}

	attempt := 0
	write := func() (*Profile, error) {
		attempt++
		profile, err := s.repo.UpdateProfile(ctx, session.UserID, update)
		if err != nil && failure.IsBusiness(err) {
			return nil, backoff.Permanent(err)
		}
		return profile, err
	}
	notify := func(err error, wait time.Duration) {
		s.log.Warn("profiles.update: attempt failed", "attempt", attempt, "max_attempts", s.retry.Attempts, "retry_in", wait, "err", err)
	}

	profile, err := backoff.RetryNotifyWithData(write, s.retry.backOff(ctx), notify)
	if err != nil {
		if failure.IsBusiness(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("update profile after %d attempts: %w", attempt, err)
	}
	return profile, nil
}

func DefaultDisplayName(identity Identity) string {
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(identity.Email, "@"); ok && strings.TrimSpace(local) != "" {
		return strings.TrimSpace(local)
	}
	return fallbackDisplayName
}

func normalizeUpdate(update ProfileUpdate) (ProfileUpdate, error) {
	if update.DisplayName == nil && update.AvatarURL == nil {
		return update, ErrEmptyUpdate
	}
	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" {
			return update, failure.Invalid("display name is required")
		}
		if len([]rune(name)) > displayNameMaxLength {
			return update, failure.Invalid(fmt.Sprintf("display name must be at most %d characters", displayNameMaxLength))
		}
		update.DisplayName = &name
	}
	if update.AvatarURL != nil {
		avatar := strings.TrimSpace(*update.AvatarURL)
		update.AvatarURL = &avatar
	}
	return update, nil
}
