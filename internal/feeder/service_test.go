package feeder

import (
	"context"
	"strings"
	"testing"
	"time"

	logx "petfeeder/pkg/logx"
)

func logxNop() logx.Logger { return logx.Nop() }

func newTestService(t *testing.T) (*Service, *fakeClock, *fakeDriver) {
	t.Helper()
	clk := &fakeClock{now: wed0930, synced: true}
	drv := &fakeDriver{}
	svc := NewService(Deps{
		Clock:  clk,
		Driver: drv,
		Hold:   time.Millisecond,
		Log:    logxNop(),
	})
	svc.Start(context.Background())
	return svc, clk, drv
}

func TestGetStateUnset(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	st := svc.GetState()
	if st.Day != Unset || st.Hour != Unset || st.Minute != Unset {
		t.Fatalf("unset state = %+v, want all -1", st)
	}
	if len(st.Events) != LogSize {
		t.Fatalf("events length = %d, want %d", len(st.Events), LogSize)
	}
	for i, e := range st.Events {
		if e != "" {
			t.Fatalf("event %d = %q, want empty", i, e)
		}
	}
}

func TestSetScheduleRoundTripsThroughState(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	msg, err := svc.SetSchedule(context.Background(), Update{Day: intp(3), Hour: intp(9), Minute: intp(30)})
	if err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if !strings.Contains(msg, "Wednesday 09:30") {
		t.Fatalf("confirmation = %q, want trigger description", msg)
	}

	st := svc.GetState()
	if st.Day != 3 || st.Hour != 9 || st.Minute != 30 {
		t.Fatalf("state = %+v, want day=3 hour=9 minute=30", st)
	}
}

func TestSetScheduleAllUnsetMessage(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	msg, err := svc.SetSchedule(context.Background(), Update{})
	if err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if msg != "no valid schedule" {
		t.Fatalf("message = %q, want %q", msg, "no valid schedule")
	}
}

func TestSetSchedulePartialKeepsPriorAndResetsDebounce(t *testing.T) {
	t.Parallel()
	svc, _, drv := newTestService(t)

	if _, err := svc.SetSchedule(context.Background(), Update{Day: intp(3), Hour: intp(9), Minute: intp(30)}); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}

	svc.Tick(context.Background())
	if got := drv.openCount(); got != 1 {
		t.Fatalf("dispenses = %d, want 1", got)
	}

	// Supplying only the hour keeps day/minute and re-arms the slot.
	if _, err := svc.SetSchedule(context.Background(), Update{Hour: intp(9)}); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	st := svc.GetState()
	if st.Day != 3 || st.Hour != 9 || st.Minute != 30 {
		t.Fatalf("state after partial update = %+v", st)
	}

	svc.Tick(context.Background())
	if got := drv.openCount(); got != 2 {
		t.Fatalf("dispenses after reset = %d, want 2", got)
	}
}

func TestManualFeedBypassesDebounce(t *testing.T) {
	t.Parallel()
	svc, _, drv := newTestService(t)

	msg := svc.ManualFeed(context.Background())
	if !strings.HasPrefix(msg, "Manual feed at ") {
		t.Fatalf("manual feed message = %q, want %q prefix", msg, "Manual feed at ")
	}
	// Never debounced: back-to-back manual feeds all dispense.
	svc.ManualFeed(context.Background())
	svc.ManualFeed(context.Background())
	if got := drv.openCount(); got != 3 {
		t.Fatalf("dispenses = %d, want 3", got)
	}

	st := svc.GetState()
	last := st.Events[len(st.Events)-1]
	if !strings.HasPrefix(last, "Manual feed at ") {
		t.Fatalf("last event = %q, want manual feed text", last)
	}
}

func TestDispenseWithUnknownTime(t *testing.T) {
	t.Parallel()
	svc, clk, _ := newTestService(t)

	// A missing time source must not block manual feeding.
	clk.set(time.Time{}, false)
	msg := svc.ManualFeed(context.Background())
	if msg != "Manual feed at unknown time" {
		t.Fatalf("message = %q, want unknown-time text", msg)
	}
}

func TestScheduledEventText(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	if _, err := svc.SetSchedule(context.Background(), Update{Day: intp(3), Hour: intp(9), Minute: intp(30)}); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	svc.Tick(context.Background())

	st := svc.GetState()
	last := st.Events[len(st.Events)-1]
	if !strings.HasPrefix(last, "Scheduled feed at ") {
		t.Fatalf("last event = %q, want scheduled feed text", last)
	}
}
