package config

type Config struct {
	Server  ServerConfig  `json:"server"`
	Logging LoggingConfig `json:"logging"`

	// Scanner controls the periodic due-reminder sweep.
	Scanner ScannerConfig `json:"scanner"`

	// Delivery controls outbound push notifications to callback URLs.
	Delivery DeliveryConfig `json:"delivery"`
}

// ServerConfig controls the inbound HTTP listener.
//
// Addr changes are NOT hot-reloadable; a restart is required.
type ServerConfig struct {
	Addr string `json:"addr"` // default: ":8000"

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ScannerConfig controls the due-reminder sweep cadence.
//
// Interval is a Go duration string (e.g. "60s", "1m"). Default: "60s".
type ScannerConfig struct {
	Interval string `json:"interval,omitempty"`
}

// DeliveryConfig controls the outbound push dispatcher.
//
// All durations are Go duration strings.
//
// Defaults (when fields are omitted/zero):
//   - timeout: "10s"
//   - rate_per_sec: 0 (unlimited)
//   - history_size: 100
type DeliveryConfig struct {
	// Timeout bounds a single outbound POST attempt.
	Timeout string `json:"timeout,omitempty"`

	// RatePerSec throttles outbound sends across all deliveries.
	// 0 disables throttling.
	RatePerSec int `json:"rate_per_sec,omitempty"`

	HistorySize int `json:"history_size,omitempty"`
}

func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8000"},
		Logging: LoggingConfig{Level: "INFO", Console: true},
		Scanner: ScannerConfig{Interval: "60s"},
		Delivery: DeliveryConfig{
			Timeout:     "10s",
			HistorySize: 100,
		},
	}
}
