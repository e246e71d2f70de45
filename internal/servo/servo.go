// Package servo drives the physical dispense mechanism.
//
// The feeder core only knows two positions: Open (dispensing) and Rest
// (idle). Pulse widths, pins and the PWM backend stay behind the Driver
// interface.
package servo

import (
	"errors"
	"strings"

	logx "petfeeder/pkg/logx"
)

// Driver moves the servo between its two positions.
type Driver interface {
	// Open moves to the dispense position.
	Open() error
	// Rest moves back to the idle position.
	Rest() error
	Close() error
}

// Config selects and parameterizes a driver.
type Config struct {
	Driver string // "noop" (default) or "gpio"
	Pin    string // gpio pin name, e.g. "GPIO18"
}

// New builds the configured driver. An empty driver name means noop.
func New(cfg Config, log logx.Logger) (Driver, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "noop":
		return &noopDriver{log: log}, nil
	case "gpio":
		return newGPIO(cfg, log)
	default:
		return nil, errors.New("unknown servo driver: " + cfg.Driver)
	}
}

// noopDriver logs position changes without touching hardware.
type noopDriver struct {
	log logx.Logger
}

func (d *noopDriver) Open() error {
	d.log.Debug("servo open (noop)")
	return nil
}

func (d *noopDriver) Rest() error {
	d.log.Debug("servo rest (noop)")
	return nil
}

func (d *noopDriver) Close() error { return nil }
