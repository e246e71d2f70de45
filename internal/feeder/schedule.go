package feeder

import (
	"fmt"
	"strings"
	"time"

	"petfeeder/internal/storage"
)

// Unset marks a schedule field as not configured.
const Unset = storage.Unset

// Schedule is the weekly trigger: day-of-week (time.Weekday numbering,
// 0 = Sunday), hour and minute. Each field is Unset (-1) until configured,
// which keeps "no schedule" distinguishable from "midnight Sunday".
type Schedule struct {
	Day    int
	Hour   int
	Minute int
}

// UnsetSchedule returns the all-sentinel trigger.
func UnsetSchedule() Schedule {
	return Schedule{Day: Unset, Hour: Unset, Minute: Unset}
}

// Complete reports whether all three fields are configured and in range.
// Only a complete trigger can ever fire.
func (s Schedule) Complete() bool {
	return s.Day >= 0 && s.Day <= 6 &&
		s.Hour >= 0 && s.Hour <= 23 &&
		s.Minute >= 0 && s.Minute <= 59
}

// Empty reports whether no field is configured at all.
func (s Schedule) Empty() bool {
	return s.Day == Unset && s.Hour == Unset && s.Minute == Unset
}

// Matches reports whether the trigger fires at the given instant.
func (s Schedule) Matches(t time.Time) bool {
	return s.Complete() &&
		int(t.Weekday()) == s.Day &&
		t.Hour() == s.Hour &&
		t.Minute() == s.Minute
}

// Describe renders the trigger for confirmation messages,
// e.g. "Wednesday 09:30" or "Wednesday --:30" while partially set.
func (s Schedule) Describe() string {
	var b strings.Builder
	if s.Day >= 0 && s.Day <= 6 {
		b.WriteString(time.Weekday(s.Day).String())
	} else {
		b.WriteString("(no day)")
	}
	b.WriteString(" ")
	if s.Hour >= 0 {
		fmt.Fprintf(&b, "%02d", s.Hour)
	} else {
		b.WriteString("--")
	}
	b.WriteString(":")
	if s.Minute >= 0 {
		fmt.Fprintf(&b, "%02d", s.Minute)
	} else {
		b.WriteString("--")
	}
	return b.String()
}

// Update carries the fields supplied by a set-schedule request.
// A nil field means "leave the prior value untouched".
type Update struct {
	Day    *int
	Hour   *int
	Minute *int
}

// Validate range-checks only the supplied fields.
func (u Update) Validate() error {
	if u.Day != nil && (*u.Day < 0 || *u.Day > 6) {
		return fmt.Errorf("day out of range: %d (want 0..6)", *u.Day)
	}
	if u.Hour != nil && (*u.Hour < 0 || *u.Hour > 23) {
		return fmt.Errorf("hour out of range: %d (want 0..23)", *u.Hour)
	}
	if u.Minute != nil && (*u.Minute < 0 || *u.Minute > 59) {
		return fmt.Errorf("minute out of range: %d (want 0..59)", *u.Minute)
	}
	return nil
}

func (u Update) apply(prev Schedule) Schedule {
	out := prev
	if u.Day != nil {
		out.Day = *u.Day
	}
	if u.Hour != nil {
		out.Hour = *u.Hour
	}
	if u.Minute != nil {
		out.Minute = *u.Minute
	}
	return out
}
