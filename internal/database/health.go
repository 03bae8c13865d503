package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Check pings both backing stores. Used by /healthz; a failing store is
// named in the error. Either argument may be nil when that store is not
// configured.
func Check(ctx context.Context, db *sql.DB, rdb *redis.Client) error {
	var errs []error
	if db != nil {
		if err := db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mariadb: %w", err))
		}
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
