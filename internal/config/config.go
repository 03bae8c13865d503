// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// LogLevel controls log verbosity outside development: "debug", "info",
	// "warn" or "error".
	LogLevel string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// TrustedProxies are the CIDRs whose forwarding headers are believed
	// when resolving the client IP.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds session settings.
	Auth AuthConfig

	// Activity holds the audit trail settings.
	Activity ActivityConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords. Times are parsed and stored as UTC.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds session settings.
type AuthConfig struct {
	// SessionTTL is how long sessions last before expiring.
	SessionTTL time.Duration
}

// ActivityConfig tunes activity capture, retention and the admin summary.
type ActivityConfig struct {
	// Locale selects the language of generated activity text: "en" or "fr".
	Locale string

	// Workers is the number of background append workers.
	Workers int

	// QueueSize is the number of events that may wait for a worker.
	QueueSize int

	// AppendTimeout bounds a single store append.
	AppendTimeout time.Duration

	// RetentionDays is how long records are kept.
	RetentionDays int

	// RetentionInterval is how often the cleanup worker runs.
	RetentionInterval time.Duration

	// SummaryTTL is how long the dashboard summary is cached in Redis.
	SummaryTTL time.Duration

	// TrackRate is the number of tracking calls allowed per client IP per minute.
	TrackRate int
}

// Retention returns RetentionDays as a duration.
func (a ActivityConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if a value is out of range.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{
			"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fd00::/8",
		}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "collabwave"),
			Password:        getEnv("DB_PASSWORD", "collabwave"),
			Name:            getEnv("DB_NAME", "collabwave"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SessionTTL: getEnvDuration("SESSION_TTL", 720*time.Hour),
		},

		Activity: ActivityConfig{
			Locale:            getEnv("ACTIVITY_LOCALE", "en"),
			Workers:           getEnvInt("ACTIVITY_WORKERS", 4),
			QueueSize:         getEnvInt("ACTIVITY_QUEUE_SIZE", 1024),
			AppendTimeout:     getEnvDuration("ACTIVITY_APPEND_TIMEOUT", 5*time.Second),
			RetentionDays:     getEnvInt("ACTIVITY_RETENTION_DAYS", 90),
			RetentionInterval: getEnvDuration("ACTIVITY_RETENTION_INTERVAL", 24*time.Hour),
			SummaryTTL:        getEnvDuration("ACTIVITY_SUMMARY_TTL", 30*time.Second),
			TrackRate:         getEnvInt("ACTIVITY_TRACK_RATE", 120),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects settings the activity pipeline cannot run with.
func (c *Config) validate() error {
	a := c.Activity
	switch strings.ToLower(a.Locale) {
	case "en", "fr":
	default:
		return fmt.Errorf("ACTIVITY_LOCALE must be \"en\" or \"fr\", got %q", a.Locale)
	}
	if a.Workers < 1 {
		return fmt.Errorf("ACTIVITY_WORKERS must be at least 1")
	}
	if a.QueueSize < a.Workers {
		return fmt.Errorf("ACTIVITY_QUEUE_SIZE must be at least ACTIVITY_WORKERS")
	}
	if a.RetentionDays < 1 {
		return fmt.Errorf("ACTIVITY_RETENTION_DAYS must be at least 1")
	}
	if a.AppendTimeout <= 0 || a.RetentionInterval <= 0 {
		return fmt.Errorf("ACTIVITY_APPEND_TIMEOUT and ACTIVITY_RETENTION_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default. Empty
// items are dropped.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
