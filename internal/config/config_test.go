package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const sampleYAML = `
logging:
  level: debug
  console: true
storage:
  driver: sqlite
  path: ./data/feeder.db
  busy_timeout: 2s
clock:
  source: ntp
  server: time.example.org
  sync_interval: 30m
servo:
  driver: gpio
  pin: GPIO18
  hold: 1500ms
feeder:
  poll_interval: 5s
http:
  enabled: true
  address: 0.0.0.0:8080
  feed_per_min: 10
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", sampleYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Clock.EffectiveServer() != "time.example.org" {
		t.Fatalf("clock server = %q", cfg.Clock.EffectiveServer())
	}
	if d, err := cfg.Servo.HoldDuration(); err != nil || d != 1500*time.Millisecond {
		t.Fatalf("hold = %v, %v", d, err)
	}
	if d, err := cfg.Feeder.Interval(); err != nil || d != 5*time.Second {
		t.Fatalf("poll interval = %v, %v", d, err)
	}
	if cfg.HTTP.FeedPerMin != 10 {
		t.Fatalf("feed_per_min = %d", cfg.HTTP.FeedPerMin)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", "feeder:\n  pol_interval: 5s\n"))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestValidateRejectsSlowPoll(t *testing.T) {
	t.Parallel()
	// A poll interval of a minute or more can miss the trigger minute entirely.
	cfg := &Config{Feeder: FeederConfig{PollInterval: "90s"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for poll_interval >= 1m")
	}
}

func TestValidateRejectsGPIOWithoutPin(t *testing.T) {
	t.Parallel()
	cfg := &Config{Servo: ServoConfig{Driver: "gpio"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for gpio driver without pin")
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate empty config: %v", err)
	}
	if d, _ := cfg.Feeder.Interval(); d != defaultPollInterval {
		t.Fatalf("default poll = %v", d)
	}
	if cfg.Clock.EffectiveServer() != defaultNTPServer {
		t.Fatalf("default ntp server = %q", cfg.Clock.EffectiveServer())
	}
	if cfg.HTTP.EffectiveAddress() != defaultHTTPAddress {
		t.Fatalf("default http address = %q", cfg.HTTP.EffectiveAddress())
	}
}
