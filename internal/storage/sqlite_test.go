package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "petfeeder/pkg/logx"
)

func openTestSQLite(t *testing.T, path string) Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteScheduleRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "feeder.db")

	st := openTestSQLite(t, path)
	got, err := st.LoadSchedule(context.Background())
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if got != UnsetSchedule() {
		t.Fatalf("fresh LoadSchedule = %+v, want unset", got)
	}

	want := Schedule{Day: 2, Hour: 9, Minute: 30}
	if err := st.SaveSchedule(context.Background(), want); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulated restart.
	st2 := openTestSQLite(t, path)
	got, err = st2.LoadSchedule(context.Background())
	if err != nil {
		t.Fatalf("LoadSchedule after reopen: %v", err)
	}
	if got != want {
		t.Fatalf("LoadSchedule = %+v, want %+v", got, want)
	}
}

func TestSQLiteLastWriteWins(t *testing.T) {
	t.Parallel()
	st := openTestSQLite(t, filepath.Join(t.TempDir(), "feeder.db"))

	for _, s := range []Schedule{
		{Day: 1, Hour: 7, Minute: 0},
		{Day: 6, Hour: 20, Minute: 15},
	} {
		if err := st.SaveSchedule(context.Background(), s); err != nil {
			t.Fatalf("SaveSchedule(%+v): %v", s, err)
		}
	}

	got, err := st.LoadSchedule(context.Background())
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if got != (Schedule{Day: 6, Hour: 20, Minute: 15}) {
		t.Fatalf("LoadSchedule = %+v, want latest write", got)
	}
}

func TestSQLiteAppendFeed(t *testing.T) {
	t.Parallel()
	st := openTestSQLite(t, filepath.Join(t.TempDir(), "feeder.db"))

	for i := 0; i < 3; i++ {
		err := st.AppendFeed(context.Background(), FeedRecord{
			Kind:      "scheduled",
			TimeKnown: false,
			Text:      "Scheduled feed at unknown time",
		})
		if err != nil {
			t.Fatalf("AppendFeed: %v", err)
		}
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) = %T, want nil store", driver, st)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "etcd"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
