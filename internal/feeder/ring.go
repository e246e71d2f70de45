package feeder

import "sync"

// LogSize is the fixed capacity of the feed history ring.
const LogSize = 5

// EventRing is a fixed-capacity ring of feed-event display strings, newest
// overwriting oldest. It is in-memory only; history does not survive a
// restart.
type EventRing struct {
	mu     sync.Mutex
	slots  [LogSize]string
	cursor int // next slot to overwrite
}

func NewEventRing() *EventRing {
	return &EventRing{}
}

// Append overwrites the oldest slot. O(1).
func (r *EventRing) Append(text string) {
	r.mu.Lock()
	r.slots[r.cursor] = text
	r.cursor = (r.cursor + 1) % LogSize
	r.mu.Unlock()
}

// Snapshot returns exactly LogSize entries oldest-first. Unpopulated slots
// come back as empty strings so the external contract stays fixed-shape.
func (r *EventRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, LogSize)
	for i := 0; i < LogSize; i++ {
		out = append(out, r.slots[(r.cursor+i)%LogSize])
	}
	return out
}
