package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"letternest/internal/api"
)

const (
	keyAccess    = "access_token"
	keyRefresh   = "refresh_token"
	keyCompleted = "completed"
)

// Store keeps the learner's local state (tokens and the completion count)
// in a small SQLite key/value table.
type Store struct {
	db    *sql.DB
	log   *logrus.Entry
	clock func() time.Time
}

var _ api.TokenStore = (*Store)(nil)

// Open creates or opens the state database at path. ":memory:" keeps state
// for the life of the process.
func Open(ctx context.Context, path string, log *logrus.Entry) (*Store, error) {
	dsn := "file::memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create state dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection so an in-memory database is shared
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log.WithField("component", "store"), clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.log.WithField("path", path).Debug("state store opened")
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) put(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO state(key, value, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) LoadTokens(ctx context.Context) (api.Tokens, error) {
	var t api.Tokens
	var err error
	if t.Access, _, err = s.get(ctx, keyAccess); err != nil {
		return api.Tokens{}, err
	}
	if t.Refresh, _, err = s.get(ctx, keyRefresh); err != nil {
		return api.Tokens{}, err
	}
	return t, nil
}

func (s *Store) SaveTokens(ctx context.Context, t api.Tokens) error {
	return s.update(ctx, func(tx *sql.Tx) error {
		if err := s.put(ctx, tx, keyAccess, t.Access); err != nil {
			return err
		}
		return s.put(ctx, tx, keyRefresh, t.Refresh)
	})
}

func (s *Store) ClearTokens(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key IN (?, ?)`, keyAccess, keyRefresh)
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Completed returns the number of lessons the learner has finished.
func (s *Store) Completed(ctx context.Context) (int, error) {
	v, ok, err := s.get(ctx, keyCompleted)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.log.WithField("value", v).Warn("ignoring corrupt completion count")
		return 0, nil
	}
	return n, nil
}

func (s *Store) SetCompleted(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}
	return s.update(ctx, func(tx *sql.Tx) error {
		return s.put(ctx, tx, keyCompleted, strconv.Itoa(n))
	})
}

// RecordCompletion adds one finished lesson, capped at limit when limit is
// positive, and returns the new count.
func (s *Store) RecordCompletion(ctx context.Context, limit int) (int, error) {
	n, err := s.Completed(ctx)
	if err != nil {
		return 0, err
	}
	n++
	if limit > 0 && n > limit {
		n = limit
	}
	if err := s.SetCompleted(ctx, n); err != nil {
		return 0, err
	}
	return n, nil
}
