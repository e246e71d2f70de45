package feeder

import (
	"fmt"
	"testing"
)

func TestRingPartiallyFilled(t *testing.T) {
	t.Parallel()
	r := NewEventRing()

	snap := r.Snapshot()
	if len(snap) != LogSize {
		t.Fatalf("snapshot length = %d, want %d", len(snap), LogSize)
	}
	for i, s := range snap {
		if s != "" {
			t.Fatalf("slot %d = %q, want empty", i, s)
		}
	}

	r.Append("a")
	r.Append("b")
	snap = r.Snapshot()
	if len(snap) != LogSize {
		t.Fatalf("snapshot length = %d, want %d", len(snap), LogSize)
	}
	// Oldest-first: the empty slots come before the populated ones.
	want := []string{"", "", "", "a", "b"}
	for i := range want {
		if snap[i] != want[i] {
			t.Fatalf("slot %d = %q, want %q", i, snap[i], want[i])
		}
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	t.Parallel()
	r := NewEventRing()
	for i := 1; i <= LogSize+3; i++ {
		r.Append(fmt.Sprintf("feed %d", i))
	}

	snap := r.Snapshot()
	if len(snap) != LogSize {
		t.Fatalf("snapshot length = %d, want %d", len(snap), LogSize)
	}
	// After k >= LogSize inserts we keep the LogSize most recent, oldest-first.
	for i := 0; i < LogSize; i++ {
		want := fmt.Sprintf("feed %d", i+4)
		if snap[i] != want {
			t.Fatalf("slot %d = %q, want %q", i, snap[i], want)
		}
	}
}
