package records

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrBadName  = errors.New("bad name for table")
	ErrNotFound = errors.New("value not found")
)

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// table is a key-value table holding gob encoded values.
type table struct {
	name string
	db   *sql.DB
}

// newTable creates the table if needed. name may only contain Latin letters
// and underscores since it is spliced into the statements.
func newTable(ctx context.Context, db *sql.DB, name string) (*table, error) {
	if !isLetters(name) {
		return nil, ErrBadName
	}
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+name+` (
	key		TEXT PRIMARY KEY,
	value	BLOB
);`)
	if err != nil {
		return nil, err
	}
	return &table{name: name, db: db}, nil
}

// get decodes the value stored under key into value, which must be a pointer.
// A missing key yields [ErrNotFound].
func (t *table) get(ctx context.Context, key string, value any) error {
	var v []byte
	err := t.db.QueryRowContext(ctx,
		`SELECT value FROM `+t.name+` WHERE key = ?;`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(value)
}

func (t *table) set(ctx context.Context, key string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	_, err := t.db.ExecContext(ctx, `
INSERT INTO `+t.name+` (key, value)
VALUES(?, ?)
ON CONFLICT(key)
DO UPDATE SET value=excluded.value;`,
		key, buf.Bytes())
	return err
}

func (t *table) delete(ctx context.Context, key string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM `+t.name+` WHERE key = ?;`, key)
	return err
}

func (t *table) count(ctx context.Context) (n int, err error) {
	err = t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name+`;`).Scan(&n)
	return
}

// SQLite stores best times and, when used as a session archive, encoded
// sessions.
type SQLite struct {
	mu       sync.Mutex
	db       *sql.DB
	best     *table
	sessions *table
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite db: %w", err)
	}
	s, err := NewSQLite(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	best, err := newTable(ctx, db, "best_time")
	if err != nil {
		return nil, fmt.Errorf("unable to create best time table: %w", err)
	}
	sessions, err := newTable(ctx, db, "game_session")
	if err != nil {
		return nil, fmt.Errorf("unable to create session table: %w", err)
	}
	return &SQLite{db: db, best: best, sessions: sessions}, nil
}

func (s *SQLite) GetBest(ctx context.Context, key string) (int, bool, error) {
	var seconds int
	err := s.best.get(ctx, key, &seconds)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	return seconds, true, nil
}

func (s *SQLite) SetBestIfBetter(ctx context.Context, key string, seconds int) (bool, error) {
	if err := checkTime(seconds); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	best, ok, err := s.GetBest(ctx, key)
	if err != nil {
		return false, err
	}
	if ok && seconds >= best {
		return false, nil
	}
	if err := s.best.set(ctx, key, seconds); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLite) SaveSession(ctx context.Context, id string, data []byte) error {
	return s.sessions.set(ctx, id, data)
}

func (s *SQLite) LoadSession(ctx context.Context, id string) ([]byte, bool, error) {
	var data []byte
	err := s.sessions.get(ctx, id, &data)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.delete(ctx, id)
}

// ArchivedSessions reports how many sessions wait to be resumed.
func (s *SQLite) ArchivedSessions(ctx context.Context) (int, error) {
	return s.sessions.count(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
