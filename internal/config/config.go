package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"habit-rooms-go/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	Timezone       string
	AllowedOrigins []string
	DB             DBConfig
	Supabase       SupabaseConfig
	Realtime       RealtimeConfig
	Progress       ProgressConfig
	Profile        ProfileConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type SupabaseConfig struct {
	URL            string
	PublishableKey string
	JWTSecret      string
	AuthTimeout    time.Duration
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
}

type RealtimeConfig struct {
	ListenEnabled bool
	Channel       string
	MinReconnect  time.Duration
	MaxReconnect  time.Duration
	BufferSize    int
}

type ProgressConfig struct {
	CacheTTL     time.Duration
	CalendarDays int
}

type ProfileConfig struct {
	UpdateAttempts int
	RetryBackoff   time.Duration
}

// ChangeChannel is the NOTIFY channel the migrations' change trigger writes to.
const ChangeChannel = "table_changes"

var (
	ErrIdentityNotConfigured = errors.New("identity provider url and public key are required")
	ErrUnknownChangeChannel  = errors.New("REALTIME_CHANNEL must match the change trigger channel " + ChangeChannel)
)

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "habit_rooms"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			MigrationsDir:   getEnv("DB_MIGRATIONS_DIR", ""),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", getEnv("VITE_SUPABASE_URL", "")),
			PublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", getEnv("VITE_SUPABASE_PUBLISHABLE_KEY", "")),
			JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
			AuthTimeout:    getEnvDuration("SUPABASE_AUTH_TIMEOUT", 5*time.Second),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
		},
		Realtime: RealtimeConfig{
			ListenEnabled: getEnvBool("REALTIME_LISTEN_ENABLED", true),
			Channel:       getEnv("REALTIME_CHANNEL", ChangeChannel),
			MinReconnect:  getEnvDuration("REALTIME_MIN_RECONNECT", 10*time.Second),
			MaxReconnect:  getEnvDuration("REALTIME_MAX_RECONNECT", time.Minute),
			BufferSize:    getEnvInt("REALTIME_BUFFER_SIZE", 16),
		},
		Progress: ProgressConfig{
			CacheTTL:     getEnvDuration("PROGRESS_CACHE_TTL", 5*time.Minute),
			CalendarDays: getEnvInt("PROGRESS_CALENDAR_DAYS", 8),
		},
		Profile: ProfileConfig{
			UpdateAttempts: getEnvInt("PROFILE_UPDATE_ATTEMPTS", 3),
			RetryBackoff:   getEnvDuration("PROFILE_RETRY_BACKOFF", 500*time.Millisecond),
		},
	}, nil
}

// Validate reports configuration the service cannot boot without.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.Realtime.ListenEnabled && c.Realtime.Channel != ChangeChannel {
		return fmt.Errorf("%w, got %q", ErrUnknownChangeChannel, c.Realtime.Channel)
	}
	if c.Supabase.SkipAuth || c.Supabase.JWTSecret != "" {
		return nil
	}
	if strings.TrimSpace(c.Supabase.URL) == "" || strings.TrimSpace(c.Supabase.PublishableKey) == "" {
		return ErrIdentityNotConfigured
	}
	return nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			result = append(result, item)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
