package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full feederd configuration file.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging LoggingConfig  `json:"logging"`
	Storage *StorageConfig `json:"storage,omitempty"`
	Clock   ClockConfig    `json:"clock"`
	Servo   ServoConfig    `json:"servo"`
	Feeder  FeederConfig   `json:"feeder"`
	HTTP    HTTPConfig     `json:"http"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig selects the persistence driver for the feeding schedule.
// If the whole section is omitted, persistence is disabled and the device
// starts with no schedule configured.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// ClockConfig selects the calendar time source.
//
// Source values:
//   - "system": trust the OS clock (device has an RTC or OS-level NTP)
//   - "ntp":    query an NTP server; the clock reports unsynchronized
//     until the first successful query
type ClockConfig struct {
	Source       string `json:"source,omitempty"`
	Server       string `json:"server,omitempty"`
	SyncInterval string `json:"sync_interval,omitempty"`
}

// ServoConfig selects the physical actuator driver.
//
// Driver values:
//   - "noop": log-only driver (default; development and tests)
//   - "gpio": PWM servo on a GPIO pin (linux only)
type ServoConfig struct {
	Driver string `json:"driver,omitempty"`
	Pin    string `json:"pin,omitempty"`
	Hold   string `json:"hold,omitempty"` // open position hold duration
}

type FeederConfig struct {
	// PollInterval is the matcher tick cadence. Must stay under one
	// minute or a minute-granularity trigger can be missed entirely.
	PollInterval string `json:"poll_interval,omitempty"`
}

type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address,omitempty"`
	// FeedPerMin/FeedBurst bound manual feed requests so a misbehaving
	// client cannot hammer the servo. Zero values pick safe defaults.
	FeedPerMin int `json:"feed_per_min,omitempty"`
	FeedBurst  int `json:"feed_burst,omitempty"`
}

const (
	defaultPollInterval = 5 * time.Second
	defaultSyncInterval = time.Hour
	defaultHold         = time.Second
	defaultNTPServer    = "pool.ntp.org"
	defaultHTTPAddress  = "0.0.0.0:8080"
)

// Interval returns the effective matcher cadence.
func (c FeederConfig) Interval() (time.Duration, error) {
	d, err := ParseDurationOrDefault("feeder.poll_interval", c.PollInterval, defaultPollInterval)
	if err != nil {
		return 0, err
	}
	if d >= time.Minute {
		return 0, fmt.Errorf("feeder.poll_interval: must be under 1m, got %s", d)
	}
	return d, nil
}

func (c ClockConfig) EffectiveServer() string {
	if s := strings.TrimSpace(c.Server); s != "" {
		return s
	}
	return defaultNTPServer
}

func (c ClockConfig) Interval() (time.Duration, error) {
	return ParseDurationOrDefault("clock.sync_interval", c.SyncInterval, defaultSyncInterval)
}

func (c ServoConfig) HoldDuration() (time.Duration, error) {
	return ParseDurationOrDefault("servo.hold", c.Hold, defaultHold)
}

func (c HTTPConfig) EffectiveAddress() string {
	if s := strings.TrimSpace(c.Address); s != "" {
		return s
	}
	return defaultHTTPAddress
}

// Validate rejects configs that cannot be applied. It is also installed as
// the manager's validator hook so a bad edit never reaches a running app.
func (c *Config) Validate() error {
	if _, err := c.Feeder.Interval(); err != nil {
		return err
	}
	if _, err := c.Clock.Interval(); err != nil {
		return err
	}
	if _, err := c.Servo.HoldDuration(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Clock.Source)) {
	case "", "system", "ntp":
	default:
		return fmt.Errorf("clock.source: unknown source %q", c.Clock.Source)
	}
	switch strings.ToLower(strings.TrimSpace(c.Servo.Driver)) {
	case "", "noop", "gpio":
	default:
		return fmt.Errorf("servo.driver: unknown driver %q", c.Servo.Driver)
	}
	if strings.EqualFold(strings.TrimSpace(c.Servo.Driver), "gpio") && strings.TrimSpace(c.Servo.Pin) == "" {
		return fmt.Errorf("servo.pin: required for the gpio driver")
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if c.HTTP.FeedPerMin < 0 || c.HTTP.FeedBurst < 0 {
		return fmt.Errorf("http.feed_per_min/feed_burst: must be >= 0")
	}
	return nil
}
