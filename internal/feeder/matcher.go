package feeder

import (
	"context"
	"sync"

	"petfeeder/internal/clock"
	logx "petfeeder/pkg/logx"
)

// Matcher compares the clock against the stored trigger on every poll tick
// and fires at most once per scheduled slot.
//
// The whole correctness mechanism is the fired flag: polling runs well
// under a minute, so without it the trigger would fire repeatedly during
// the matching minute. The flag stays set for the remainder of the trigger
// day and self-clears as soon as the observed day-of-week rolls over,
// re-arming for next week's occurrence.
//
// The flag is volatile. A restart during the trigger day re-arms it, which
// can double-fire within that day.
type Matcher struct {
	store *ScheduleStore
	clk   clock.Clock
	act   *Actuator
	log   logx.Logger

	mu    sync.Mutex
	fired bool
}

func NewMatcher(store *ScheduleStore, clk clock.Clock, act *Actuator, log logx.Logger) *Matcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Matcher{store: store, clk: clk, act: act, log: log}
}

// Tick evaluates one poll cycle.
func (m *Matcher) Tick(ctx context.Context) {
	trig := m.store.Get()
	if !trig.Complete() {
		// No (full) schedule configured; never fires, flag state irrelevant.
		return
	}

	now, synced := m.clk.Now()
	if !synced {
		// Never fire without a trusted time source; skip this tick.
		m.log.Trace("tick skipped: clock not synchronized")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if int(now.Weekday()) != trig.Day {
		// Day rolled over (or isn't the trigger day): re-arm.
		m.fired = false
		return
	}

	if now.Hour() == trig.Hour && now.Minute() == trig.Minute && !m.fired {
		// The flag is set before actuating, never after.
		m.fired = true
		m.log.Info("trigger matched", logx.String("trigger", trig.Describe()))
		m.act.Dispense(ctx, Scheduled)
	}
}

// Reset clears the fired flag. Called whenever the trigger is replaced.
func (m *Matcher) Reset() {
	m.mu.Lock()
	m.fired = false
	m.mu.Unlock()
}

// Fired exposes the debounce state for the facade and tests.
func (m *Matcher) Fired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}
