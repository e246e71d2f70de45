package clock

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"

	logx "petfeeder/pkg/logx"
)

// NTP is a Clock that reports unsynchronized until the first successful
// query against an NTP server, then serves offset-corrected OS time.
//
// A failed resync keeps the previous offset: an already-synchronized clock
// stays usable through transient network faults.
type NTP struct {
	server string
	log    logx.Logger

	mu     sync.Mutex
	offset time.Duration
	synced bool
}

func NewNTP(server string, log logx.Logger) *NTP {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &NTP{server: server, log: log}
}

func (c *NTP) Now() (time.Time, bool) {
	c.mu.Lock()
	off := c.offset
	ok := c.synced
	c.mu.Unlock()
	return time.Now().Add(off), ok
}

// Synced reports whether at least one query has succeeded.
func (c *NTP) Synced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synced
}

// Sync queries the server once and updates the offset. Errors are returned
// so the caller can log or reschedule, but never change the synced state
// once it is true.
func (c *NTP) Sync(ctx context.Context) error {
	_ = ctx // ntp.QueryWithOptions has its own timeout; keep the signature context-aware.
	resp, err := ntp.QueryWithOptions(c.server, ntp.QueryOptions{Timeout: 5 * time.Second})
	if err != nil {
		c.log.Warn("ntp query failed", logx.String("server", c.server), logx.Err(err))
		return err
	}
	if err := resp.Validate(); err != nil {
		c.log.Warn("ntp response rejected", logx.String("server", c.server), logx.Err(err))
		return err
	}

	c.mu.Lock()
	first := !c.synced
	c.offset = resp.ClockOffset
	c.synced = true
	c.mu.Unlock()

	if first {
		c.log.Info("clock synchronized",
			logx.String("server", c.server),
			logx.Duration("offset", resp.ClockOffset))
	} else {
		c.log.Debug("clock resynced",
			logx.String("server", c.server),
			logx.Duration("offset", resp.ClockOffset))
	}
	return nil
}
