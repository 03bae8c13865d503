// Package database opens the MariaDB pool and the Redis client, runs
// migrations and reports store health. Both connections are created once
// at startup and shared across the application via dependency injection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// MariaDB driver -- imported for side effect of registering the driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/collabwave/collabwave/internal/config"
)

// Startup retry schedule shared by MariaDB and Redis: both may still be
// starting when the app container launches.
const (
	connectAttempts = 10
	initialBackoff  = time.Second
	maxBackoff      = 30 * time.Second
	pingTimeout     = 5 * time.Second
)

// sleep is replaced in tests.
var sleep = time.Sleep

// NewMariaDB opens the connection pool and waits until it answers a ping.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitReady("mariadb", db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// waitReady calls ping until it succeeds, backing off exponentially
// between attempts.
func waitReady(name string, ping func(context.Context) error) error {
	backoff := initialBackoff
	var err error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = ping(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}

		slog.Warn(name+" not ready, retrying...",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", connectAttempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)
		sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}

	return fmt.Errorf("pinging %s after %d attempts: %w", name, connectAttempts, err)
}
