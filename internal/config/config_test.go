package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"habit-rooms-go/pkg/logger"
)

func TestLoadReadsDotEnvWithoutOverridingEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.env")
	contents := "# comment\n" +
		"export HTTP_PORT=9090\n" +
		"SUPABASE_URL=\"https://example.supabase.co\"\n" +
		"PROGRESS_CACHE_TTL=90s # inline\n" +
		"APP_TIMEZONE=Europe/Berlin\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("DOTENV_PATH", path)
	t.Setenv("APP_TIMEZONE", "UTC")
	unsetAfterTest(t, "HTTP_PORT", "SUPABASE_URL", "PROGRESS_CACHE_TTL")

	cfg, err := Load(logger.Discard())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected port from .env, got %q", cfg.HTTPPort)
	}
	if cfg.Supabase.URL != "https://example.supabase.co" {
		t.Fatalf("expected unquoted url, got %q", cfg.Supabase.URL)
	}
	if cfg.Progress.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %v", cfg.Progress.CacheTTL)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("expected env var to win over .env, got %q", cfg.Timezone)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	unsetAfterTest(t, "CORS_ALLOWED_ORIGINS", "PROFILE_UPDATE_ATTEMPTS", "PROGRESS_CALENDAR_DAYS", "REALTIME_CHANNEL")

	cfg, err := Load(logger.Discard())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Profile.UpdateAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Profile.UpdateAttempts)
	}
	if cfg.Progress.CalendarDays != 8 {
		t.Fatalf("expected 8 calendar days, got %d", cfg.Progress.CalendarDays)
	}
	if cfg.Realtime.Channel != "table_changes" {
		t.Fatalf("expected default channel, got %q", cfg.Realtime.Channel)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing identity endpoint",
			cfg:     Config{Timezone: "UTC"},
			wantErr: ErrIdentityNotConfigured,
		},
		{
			name: "remote identity configured",
			cfg:  Config{Timezone: "UTC", Supabase: SupabaseConfig{URL: "https://x.supabase.co", PublishableKey: "key"}},
		},
		{
			name: "local jwt secret",
			cfg:  Config{Timezone: "UTC", Supabase: SupabaseConfig{JWTSecret: "secret"}},
		},
		{
			name: "auth skipped",
			cfg:  Config{Timezone: "UTC", Supabase: SupabaseConfig{SkipAuth: true}},
		},
		{
			name: "listener on trigger channel",
			cfg: Config{
				Timezone: "UTC",
				Supabase: SupabaseConfig{SkipAuth: true},
				Realtime: RealtimeConfig{ListenEnabled: true, Channel: ChangeChannel},
			},
		},
		{
			name: "listener on another channel",
			cfg: Config{
				Timezone: "UTC",
				Supabase: SupabaseConfig{SkipAuth: true},
				Realtime: RealtimeConfig{ListenEnabled: true, Channel: "changes"},
			},
			wantErr: ErrUnknownChangeChannel,
		},
		{
			name: "channel ignored without listener",
			cfg: Config{
				Timezone: "UTC",
				Supabase: SupabaseConfig{SkipAuth: true},
				Realtime: RealtimeConfig{Channel: "changes"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateRejectsUnknownTimezone(t *testing.T) {
	cfg := Config{Timezone: "Mars/Olympus", Supabase: SupabaseConfig{SkipAuth: true}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestGetDSNPrefersExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://u:p@db/habits", Host: "ignored"}
	if cfg.GetDSN() != "postgres://u:p@db/habits" {
		t.Fatalf("expected explicit dsn, got %q", cfg.GetDSN())
	}
}

func unsetAfterTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		previous, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, previous)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}
