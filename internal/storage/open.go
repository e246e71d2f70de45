package storage

import (
	"context"
	"errors"
	"strings"

	logx "petfeeder/pkg/logx"
)

// Store is the minimal persistence API used by the feeder core.
type Store interface {
	// LoadSchedule reads the persisted triple. A missing field yields the
	// Unset sentinel for that field; a missing database yields the fully
	// unset triple, not an error.
	LoadSchedule(ctx context.Context) (Schedule, error)
	// SaveSchedule persists the full triple; the write completes before
	// the call returns.
	SaveSchedule(ctx context.Context, s Schedule) error
	// AppendFeed records a dispense for the audit trail.
	AppendFeed(ctx context.Context, r FeedRecord) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

func clampField(v, lo, hi int) int {
	if v < lo || v > hi {
		return Unset
	}
	return v
}

// sanitize maps any out-of-range persisted field to the sentinel so a
// corrupted row can never produce a partial or bogus schedule.
func sanitize(s Schedule) Schedule {
	return Schedule{
		Day:    clampField(s.Day, 0, 6),
		Hour:   clampField(s.Hour, 0, 23),
		Minute: clampField(s.Minute, 0, 59),
	}
}
