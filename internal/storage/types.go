package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (json snapshot + jsonl audit)
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Unset marks a schedule field as not configured.
const Unset = -1

// Schedule is the persisted weekly trigger triple. Each field defaults to
// Unset (-1) when absent, distinguishing "no schedule" from midnight Sunday.
type Schedule struct {
	Day    int // 0..6, time.Weekday numbering (0 = Sunday)
	Hour   int // 0..23
	Minute int // 0..59
}

// UnsetSchedule returns the all-sentinel triple.
func UnsetSchedule() Schedule {
	return Schedule{Day: Unset, Hour: Unset, Minute: Unset}
}

// FeedRecord is one audited dispense.
// Keep it compact and schema-stable.
type FeedRecord struct {
	At        time.Time
	Kind      string // "manual" or "scheduled"
	TimeKnown bool   // false when the clock was unsynchronized
	Text      string // the display string shown to clients
}
