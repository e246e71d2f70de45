package feeder

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable clock for matcher tests.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	synced bool
}

func (c *fakeClock) Now() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, c.synced
}

func (c *fakeClock) set(t time.Time, synced bool) {
	c.mu.Lock()
	c.now = t
	c.synced = synced
	c.mu.Unlock()
}

// fakeDriver counts dispense cycles.
type fakeDriver struct {
	mu    sync.Mutex
	opens int
	rests int
}

func (d *fakeDriver) Open() error {
	d.mu.Lock()
	d.opens++
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Rest() error {
	d.mu.Lock()
	d.rests++
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Close() error { return nil }

func (d *fakeDriver) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Wednesday 2026-01-07 09:30 local time.
var wed0930 = time.Date(2026, 1, 7, 9, 30, 0, 0, time.Local)

func newTestRig(t *testing.T) (*ScheduleStore, *Matcher, *fakeClock, *fakeDriver, *EventRing) {
	t.Helper()
	clk := &fakeClock{now: wed0930, synced: true}
	drv := &fakeDriver{}
	ring := NewEventRing()
	store := NewScheduleStore(nil, logxNop())
	act := NewActuator(drv, clk, ring, nil, time.Millisecond, logxNop())
	m := NewMatcher(store, clk, act, logxNop())
	return store, m, clk, drv, ring
}

func setFull(t *testing.T, store *ScheduleStore, day, hour, minute int) {
	t.Helper()
	_, err := store.Set(context.Background(), Update{Day: &day, Hour: &hour, Minute: &minute})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestMatcherFiresOncePerMinute(t *testing.T) {
	t.Parallel()
	store, m, clk, drv, _ := newTestRig(t)
	setFull(t, store, int(wed0930.Weekday()), 9, 30)

	// Sub-minute polling: many ticks land in the matching minute.
	for i := 0; i < 10; i++ {
		clk.set(wed0930.Add(time.Duration(i)*5*time.Second), true)
		m.Tick(context.Background())
	}
	if got := drv.openCount(); got != 1 {
		t.Fatalf("dispenses = %d, want exactly 1", got)
	}
	if !m.Fired() {
		t.Fatal("expected fired flag set after match")
	}

	// Still the same day, later time: the flag stays set and later ticks
	// must not fire.
	clk.set(wed0930.Add(3*time.Hour), true)
	m.Tick(context.Background())
	if got := drv.openCount(); got != 1 {
		t.Fatalf("dispenses after same-day tick = %d, want 1", got)
	}
}

func TestMatcherRearmsOnDayRollover(t *testing.T) {
	t.Parallel()
	store, m, clk, drv, _ := newTestRig(t)
	setFull(t, store, int(wed0930.Weekday()), 9, 30)

	m.Tick(context.Background())
	if got := drv.openCount(); got != 1 {
		t.Fatalf("dispenses = %d, want 1", got)
	}

	// Day rolls over: flag clears even though hour/minute don't match.
	clk.set(wed0930.Add(24*time.Hour), true)
	m.Tick(context.Background())
	if m.Fired() {
		t.Fatal("expected fired flag cleared after day rollover")
	}

	// Next week's occurrence fires exactly once more.
	clk.set(wed0930.Add(7*24*time.Hour), true)
	m.Tick(context.Background())
	m.Tick(context.Background())
	if got := drv.openCount(); got != 2 {
		t.Fatalf("dispenses after next week = %d, want 2", got)
	}
}

func TestMatcherNeverFiresUnset(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		upd  Update
	}{
		{name: "fully unset", upd: Update{}},
		{name: "only hour", upd: Update{Hour: intp(9)}},
		{name: "day and hour", upd: Update{Day: intp(3), Hour: intp(9)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, m, clk, drv, _ := newTestRig(t)
			if _, err := store.Set(context.Background(), tt.upd); err != nil {
				t.Fatalf("Set: %v", err)
			}
			// Sweep a whole day of ticks; a partial trigger must stay silent.
			for i := 0; i < 24; i++ {
				clk.set(wed0930.Add(time.Duration(i)*time.Hour), true)
				m.Tick(context.Background())
			}
			if got := drv.openCount(); got != 0 {
				t.Fatalf("dispenses = %d, want 0", got)
			}
		})
	}
}

func TestMatcherSkipsUnsyncedClock(t *testing.T) {
	t.Parallel()
	store, m, clk, drv, _ := newTestRig(t)
	setFull(t, store, int(wed0930.Weekday()), 9, 30)

	clk.set(wed0930, false)
	m.Tick(context.Background())
	if got := drv.openCount(); got != 0 {
		t.Fatalf("dispenses with unsynced clock = %d, want 0", got)
	}

	// Once the clock syncs, the same slot fires.
	clk.set(wed0930, true)
	m.Tick(context.Background())
	if got := drv.openCount(); got != 1 {
		t.Fatalf("dispenses after sync = %d, want 1", got)
	}
}

func TestMatcherResetRearms(t *testing.T) {
	t.Parallel()
	store, m, _, drv, _ := newTestRig(t)
	setFull(t, store, int(wed0930.Weekday()), 9, 30)

	m.Tick(context.Background())
	m.Reset()
	m.Tick(context.Background())
	if got := drv.openCount(); got != 2 {
		t.Fatalf("dispenses = %d, want 2 after explicit reset", got)
	}
}
