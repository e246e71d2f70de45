// Package clock provides the calendar time source for schedule matching.
//
// The matcher must never fire on an untrusted clock, so every read carries
// a "synchronized" flag alongside the time.
package clock

import "time"

// Clock reads calendar time. The bool reports whether the time can be
// trusted for schedule matching; callers must skip matching when false.
type Clock interface {
	Now() (time.Time, bool)
}

// System trusts the OS clock unconditionally. Appropriate when the device
// has an RTC or the OS keeps itself NTP-synchronized.
type System struct{}

func (System) Now() (time.Time, bool) { return time.Now(), true }
