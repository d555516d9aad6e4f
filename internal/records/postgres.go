package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/minesweeper-engine/internal/database"
)

type Postgres struct {
	db *pgxpool.Pool
}

// OpenPostgres migrates the database at url and connects to it.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, migrator, err := database.ConnectAndMigrate(ctx, url)
	if err != nil {
		return nil, err
	}
	migrator.Close()
	return NewPostgres(pool), nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

func (pg *Postgres) GetBest(ctx context.Context, key string) (int, bool, error) {
	var seconds int
	err := pg.db.QueryRow(ctx,
		"SELECT seconds FROM best_time WHERE key = $1",
		key,
	).Scan(&seconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	return seconds, true, nil
}

func (pg *Postgres) SetBestIfBetter(ctx context.Context, key string, seconds int) (bool, error) {
	if err := checkTime(seconds); err != nil {
		return false, err
	}
	tag, err := pg.db.Exec(ctx, `
		INSERT INTO best_time (key, seconds)
		VALUES (@key, @seconds)
		ON CONFLICT (key) DO UPDATE
			SET seconds = excluded.seconds, updated_at = now()
			WHERE excluded.seconds < best_time.seconds`,
		pgx.NamedArgs{
			"key":     key,
			"seconds": seconds,
		},
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return false, fmt.Errorf("%w: %s", ErrInvalidTime, pgErr.Message)
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (pg *Postgres) Close() error {
	pg.db.Close()
	return nil
}
