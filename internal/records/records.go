// Package records keeps the best completion time per board configuration.
package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
)

var ErrInvalidTime = errors.New("best time must not be negative")

// Store persists best times keyed by a board configuration string. A time
// only replaces the stored one when it is strictly lower.
type Store interface {
	GetBest(ctx context.Context, key string) (seconds int, ok bool, err error)
	SetBestIfBetter(ctx context.Context, key string, seconds int) (bool, error)
	Close() error
}

// Open creates the store selected by c.Driver.
func Open(ctx context.Context, c config.RecordsConfig, log *logrus.Logger) (Store, error) {
	log.WithField("driver", c.Driver).Info("opening records store")
	var (
		store Store
		err   error
	)
	switch c.Driver {
	case "", "memory":
		store = NewMemory()
	case "sqlite":
		store, err = OpenSQLite(c.SqlitePath)
	case "postgres":
		store, err = OpenPostgres(ctx, c.Postgres.DbUrl())
	case "redis":
		store, err = OpenRedis(ctx, c.Redis)
	default:
		err = fmt.Errorf("unknown records driver %q", c.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func checkTime(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTime, seconds)
	}
	return nil
}
