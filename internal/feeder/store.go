package feeder

import (
	"context"
	"sync"

	"petfeeder/internal/storage"
	logx "petfeeder/pkg/logx"
)

// ScheduleStore holds the single weekly trigger and writes it through to
// persistence on every mutation. With no persistence configured it still
// works, just without surviving restarts.
type ScheduleStore struct {
	log     logx.Logger
	persist storage.Store // may be nil (persistence disabled)

	mu  sync.Mutex
	cur Schedule
}

func NewScheduleStore(persist storage.Store, log logx.Logger) *ScheduleStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ScheduleStore{
		log:     log,
		persist: persist,
		cur:     UnsetSchedule(),
	}
}

// Load reads the persisted trigger once at startup. Any persistence fault
// degrades to the unset sentinel; the device must stay operable with no
// schedule.
func (s *ScheduleStore) Load(ctx context.Context) Schedule {
	if s.persist == nil {
		return s.Get()
	}
	row, err := s.persist.LoadSchedule(ctx)
	if err != nil {
		s.log.Warn("schedule load failed; starting unset", logx.Err(err))
		row = storage.UnsetSchedule()
	}
	sch := Schedule{Day: row.Day, Hour: row.Hour, Minute: row.Minute}

	s.mu.Lock()
	s.cur = sch
	s.mu.Unlock()

	if sch.Complete() {
		s.log.Info("schedule loaded", logx.String("trigger", sch.Describe()))
	}
	return sch
}

// Set merges the supplied fields into the current trigger and persists the
// full triple before returning. Persistence write failures are logged, not
// surfaced; the in-memory value is authoritative for this process run.
func (s *ScheduleStore) Set(ctx context.Context, u Update) (Schedule, error) {
	if err := u.Validate(); err != nil {
		return Schedule{}, err
	}

	s.mu.Lock()
	next := u.apply(s.cur)
	s.cur = next
	s.mu.Unlock()

	if s.persist != nil {
		err := s.persist.SaveSchedule(ctx, storage.Schedule{
			Day:    next.Day,
			Hour:   next.Hour,
			Minute: next.Minute,
		})
		if err != nil {
			s.log.Warn("schedule persist failed", logx.Err(err), logx.String("trigger", next.Describe()))
		}
	}
	return next, nil
}

// Get returns the current in-memory trigger. No I/O.
func (s *ScheduleStore) Get() Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}
