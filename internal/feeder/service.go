package feeder

import (
	"context"
	"time"

	"petfeeder/internal/clock"
	"petfeeder/internal/eventbus"
	"petfeeder/internal/servo"
	"petfeeder/internal/storage"
	logx "petfeeder/pkg/logx"
)

// Service is the single owned aggregate for the feeder core: schedule
// store, event ring, actuator and matcher behind one facade. Transports
// talk to this, never to the parts directly.
type Service struct {
	store   *ScheduleStore
	ring    *EventRing
	act     *Actuator
	matcher *Matcher
	bus     eventbus.Bus
	log     logx.Logger
}

// Deps collects the collaborators the core needs.
type Deps struct {
	Persist storage.Store // may be nil
	Clock   clock.Clock
	Driver  servo.Driver
	Bus     eventbus.Bus
	Hold    time.Duration
	Log     logx.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	ring := NewEventRing()
	store := NewScheduleStore(d.Persist, log.With(logx.String("comp", "schedule")))
	act := NewActuator(d.Driver, d.Clock, ring, d.Bus, d.Hold, log.With(logx.String("comp", "actuator")))
	matcher := NewMatcher(store, d.Clock, act, log.With(logx.String("comp", "matcher")))
	return &Service{
		store:   store,
		ring:    ring,
		act:     act,
		matcher: matcher,
		bus:     d.Bus,
		log:     log,
	}
}

// Start loads the persisted schedule. Never fails: persistence faults
// degrade to an unset schedule.
func (s *Service) Start(ctx context.Context) {
	s.store.Load(ctx)
}

// Tick runs one matcher poll. Invoked by the app's cron runner.
func (s *Service) Tick(ctx context.Context) {
	s.matcher.Tick(ctx)
}

// SetHold updates the actuator hold duration (config hot-reload).
func (s *Service) SetHold(d time.Duration) {
	s.act.SetHold(d)
}

// State is the read snapshot served to clients.
type State struct {
	Day    int
	Hour   int
	Minute int
	Events []string // always LogSize entries, oldest-first
}

// GetState composes the current trigger and recent events. Never fails.
func (s *Service) GetState() State {
	sch := s.store.Get()
	return State{
		Day:    sch.Day,
		Hour:   sch.Hour,
		Minute: sch.Minute,
		Events: s.ring.Snapshot(),
	}
}

// SetSchedule applies the supplied fields, persists the result and resets
// the debounce flag. The returned string is the confirmation shown to the
// caller; the error is only ever a validation failure.
func (s *Service) SetSchedule(ctx context.Context, u Update) (string, error) {
	sch, err := s.store.Set(ctx, u)
	if err != nil {
		return "", err
	}
	s.matcher.Reset()
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeScheduleReplaced, Data: sch})
	}
	if sch.Empty() {
		return "no valid schedule", nil
	}
	return "schedule saved: " + sch.Describe(), nil
}

// ManualFeed dispenses immediately. It bypasses the matcher and the
// debounce flag entirely: manual feeding is never debounced.
func (s *Service) ManualFeed(ctx context.Context) string {
	ev := s.act.Dispense(ctx, Manual)
	return ev.Text
}
