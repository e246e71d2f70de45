package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "petfeeder/pkg/logx"
)

const (
	keyDay    = "feed_day"
	keyHour   = "feed_hour"
	keyMinute = "feed_minute"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS feeds (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	at         TEXT NOT NULL,
	kind       TEXT NOT NULL,
	time_known INTEGER NOT NULL,
	text       TEXT NOT NULL
);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadSchedule(ctx context.Context) (Schedule, error) {
	if s == nil || s.db == nil {
		return UnsetSchedule(), ErrDisabled
	}
	out := UnsetSchedule()
	for _, kv := range []struct {
		key string
		dst *int
	}{
		{keyDay, &out.Day},
		{keyHour, &out.Hour},
		{keyMinute, &out.Minute},
	} {
		var v int
		err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, kv.key).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return UnsetSchedule(), err
		}
		*kv.dst = v
	}
	return sanitize(out), nil
}

func (s *sqliteStore) SaveSchedule(ctx context.Context, sch Schedule) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, kv := range []struct {
		key string
		val int
	}{
		{keyDay, sch.Day},
		{keyHour, sch.Hour},
		{keyMinute, sch.Minute},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings(key, value) VALUES(?,?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
			kv.key, kv.val,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) AppendFeed(ctx context.Context, r FeedRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	known := 0
	if r.TimeKnown {
		known = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feeds(at, kind, time_known, text) VALUES(?,?,?,?)`,
		r.At.Format(time.RFC3339Nano), r.Kind, known, r.Text,
	)
	return err
}
