package feeder

import (
	"context"
	"sync"
	"time"

	"petfeeder/internal/clock"
	"petfeeder/internal/eventbus"
	"petfeeder/internal/servo"
	logx "petfeeder/pkg/logx"
)

// Reason distinguishes who asked for a dispense.
type Reason int

const (
	Manual Reason = iota
	Scheduled
)

func (r Reason) String() string {
	if r == Scheduled {
		return "scheduled"
	}
	return "manual"
}

func (r Reason) label() string {
	if r == Scheduled {
		return "Scheduled feed"
	}
	return "Manual feed"
}

const eventTimeFormat = "Mon Jan 2 15:04:05 2006"

// FeedEvent records one dispense. The display text is rendered at creation
// time and never re-derived.
type FeedEvent struct {
	Reason    Reason
	At        time.Time
	TimeKnown bool
	Text      string
}

// Actuator wraps the servo driver with the full open-hold-rest cycle and
// the feed-history side effects.
//
// Dispense blocks for the hold duration and is mutually exclusive: at most
// one dispense is in flight at any time.
type Actuator struct {
	driver servo.Driver
	clk    clock.Clock
	ring   *EventRing
	bus    eventbus.Bus
	log    logx.Logger

	mu   sync.Mutex // serializes dispenses
	hold time.Duration
}

func NewActuator(driver servo.Driver, clk clock.Clock, ring *EventRing, bus eventbus.Bus, hold time.Duration, log logx.Logger) *Actuator {
	if log.IsZero() {
		log = logx.Nop()
	}
	if hold <= 0 {
		hold = time.Second
	}
	return &Actuator{
		driver: driver,
		clk:    clk,
		ring:   ring,
		bus:    bus,
		hold:   hold,
		log:    log,
	}
}

// SetHold updates the open-position hold duration (config hot-reload).
func (a *Actuator) SetHold(d time.Duration) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	a.hold = d
	a.mu.Unlock()
}

// Dispense runs one full dispense cycle and always produces exactly one
// FeedEvent. Driver faults are logged but never returned: the hardware has
// no position feedback, so software treats actuation as fire-and-forget.
// A missing time source doesn't block dispensing either; the event just
// records "unknown time".
func (a *Actuator) Dispense(ctx context.Context, reason Reason) FeedEvent {
	_ = ctx // no cancellation model; kept for call-site symmetry
	a.mu.Lock()
	defer a.mu.Unlock()

	now, known := a.clk.Now()
	ev := FeedEvent{Reason: reason, At: now, TimeKnown: known}
	if known {
		ev.Text = reason.label() + " at " + now.Format(eventTimeFormat)
	} else {
		ev.Text = reason.label() + " at unknown time"
	}

	a.log.Info("dispensing", logx.String("reason", reason.String()), logx.Duration("hold", a.hold))
	if err := a.driver.Open(); err != nil {
		a.log.Warn("servo open failed", logx.Err(err))
	}
	// No cancellation: once a dispense begins it runs to completion.
	time.Sleep(a.hold)
	if err := a.driver.Rest(); err != nil {
		a.log.Warn("servo rest failed", logx.Err(err))
	}

	a.ring.Append(ev.Text)
	if a.bus != nil {
		a.bus.Publish(eventbus.Event{Type: eventbus.TypeFeedDispensed, Time: now, Data: ev})
	}
	return ev
}
