package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Queue      QueueConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxConns      int32
	MinConns      int32
	RunMigrations bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

// AttendanceConfig holds the calculation frame and sync-path limits.
type AttendanceConfig struct {
	Timezone            string
	Location            *time.Location
	ClockTolerance      time.Duration
	SyncTimeout         time.Duration
	DefaultAutoCalcTime string
	MaxRangeDays        int
}

type QueueConfig struct {
	Workers      int
	PollInterval time.Duration
	MaxAttempts  int
	Lease        time.Duration
	BatchTTL     time.Duration
}

func Load() (*Config, error) {
	// .env is optional; the environment wins either way
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}
	var errs []error

	// Database configuration
	config.Database = DatabaseConfig{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          getEnvInt("DB_PORT", 5432, &errs),
		User:          getEnv("DB_USER", "postgres"),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", "attendance"),
		SSLMode:       getEnv("DB_SSL_MODE", "disable"),
		MaxConns:      int32(getEnvInt("DB_MAX_CONNS", 25, &errs)),
		MinConns:      int32(getEnvInt("DB_MIN_CONNS", 5, &errs)),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true, &errs),
	}

	// Application configuration
	config.App = AppConfig{
		Port:               getEnvInt("APP_PORT", 8080, &errs),
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance configuration
	config.Attendance = AttendanceConfig{
		Timezone:            getEnv("ATTENDANCE_TIMEZONE", "UTC"),
		ClockTolerance:      getEnvDuration("ATTENDANCE_CLOCK_TOLERANCE", 4*time.Hour, &errs),
		SyncTimeout:         getEnvDuration("ATTENDANCE_SYNC_TIMEOUT", 10*time.Second, &errs),
		DefaultAutoCalcTime: getEnv("ATTENDANCE_DEFAULT_AUTO_CALC_TIME", "05:00"),
		MaxRangeDays:        getEnvInt("ATTENDANCE_MAX_RANGE_DAYS", 92, &errs),
	}

	// Queue configuration
	config.Queue = QueueConfig{
		Workers:      getEnvInt("QUEUE_WORKERS", 4, &errs),
		PollInterval: getEnvDuration("QUEUE_POLL_INTERVAL", time.Second, &errs),
		MaxAttempts:  getEnvInt("QUEUE_MAX_ATTEMPTS", 3, &errs),
		Lease:        getEnvDuration("QUEUE_LEASE", 2*time.Minute, &errs),
		BatchTTL:     getEnvDuration("BATCH_TTL", time.Hour, &errs),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration and resolves the attendance location.
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := ParseLogLevel(c.App.LogLevel); err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}
	c.Attendance.Location = loc

	if c.Attendance.ClockTolerance < 0 {
		return fmt.Errorf("ATTENDANCE_CLOCK_TOLERANCE must not be negative")
	}
	if c.Attendance.SyncTimeout <= 0 {
		return fmt.Errorf("ATTENDANCE_SYNC_TIMEOUT must be positive")
	}
	if _, err := time.Parse("15:04", c.Attendance.DefaultAutoCalcTime); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_DEFAULT_AUTO_CALC_TIME %q", c.Attendance.DefaultAutoCalcTime)
	}
	if c.Attendance.MaxRangeDays <= 0 {
		return fmt.Errorf("ATTENDANCE_MAX_RANGE_DAYS must be positive")
	}

	if c.Queue.Workers <= 0 {
		return fmt.Errorf("QUEUE_WORKERS must be positive")
	}
	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be positive")
	}
	if c.Queue.PollInterval <= 0 || c.Queue.Lease <= 0 || c.Queue.BatchTTL <= 0 {
		return fmt.Errorf("QUEUE_POLL_INTERVAL, QUEUE_LEASE and BATCH_TTL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ParseLogLevel maps LOG_LEVEL onto a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL %q", level)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
