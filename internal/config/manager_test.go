package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
server:
  addr: "127.0.0.1:9000"
logging:
  level: DEBUG
  console: true
scanner:
  interval: 30s
delivery:
  timeout: 5s
  rate_per_sec: 2
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Scanner.Interval != "30s" {
		t.Fatalf("interval = %q", cfg.Scanner.Interval)
	}
	if cfg.Delivery.RatePerSec != 2 {
		t.Fatalf("rate = %d", cfg.Delivery.RatePerSec)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"server":{"addr":":8000"},"logging":{"level":"INFO","console":true},"scanner":{},"delivery":{}}`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
logging:
  level: WARN
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Omitted sections keep defaults.
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q, want default", cfg.Server.Addr)
	}
	if cfg.Scanner.Interval != "60s" {
		t.Fatalf("interval = %q, want default", cfg.Scanner.Interval)
	}
	if cfg.Logging.Level != "WARN" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
serverr:
  addr: ":8000"
`)

	m := NewManager(path)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	d, err := ParseDurationField("x", "90s")
	if err != nil || d != 90*time.Second {
		t.Fatalf("got (%v, %v)", d, err)
	}
	if _, err := ParseDurationField("x", "banana"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if d, err := ParseDurationOrDefault("x", "", 42*time.Second); err != nil || d != 42*time.Second {
		t.Fatalf("got (%v, %v), want default", d, err)
	}
}
