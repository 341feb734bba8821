package app

import (
	"fmt"
	"time"

	"ronbot/internal/config"
	"ronbot/internal/delivery"
	"ronbot/internal/httpapi"
)

func mapDeliveryConfig(cfg *config.Config) (delivery.Config, error) {
	timeout, err := config.ParseDurationOrDefault("delivery.timeout", cfg.Delivery.Timeout, 10*time.Second)
	if err != nil {
		return delivery.Config{}, err
	}
	if cfg.Delivery.RatePerSec < 0 {
		return delivery.Config{}, fmt.Errorf("delivery.rate_per_sec must be >= 0")
	}
	if cfg.Delivery.HistorySize < 0 {
		return delivery.Config{}, fmt.Errorf("delivery.history_size must be >= 0")
	}
	return delivery.Config{
		Timeout:     timeout,
		RatePerSec:  cfg.Delivery.RatePerSec,
		HistorySize: cfg.Delivery.HistorySize,
	}, nil
}

func mapServerConfig(cfg *config.Config) (httpapi.Config, error) {
	readTimeout, err := config.ParseDurationField("server.read_timeout", cfg.Server.ReadTimeout)
	if err != nil {
		return httpapi.Config{}, err
	}
	writeTimeout, err := config.ParseDurationField("server.write_timeout", cfg.Server.WriteTimeout)
	if err != nil {
		return httpapi.Config{}, err
	}
	idleTimeout, err := config.ParseDurationField("server.idle_timeout", cfg.Server.IdleTimeout)
	if err != nil {
		return httpapi.Config{}, err
	}
	return httpapi.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

// validate rejects bad configs before commit/publish during hot reload.
func validate(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := config.ParseDurationField("scanner.interval", cfg.Scanner.Interval); err != nil {
		return err
	}
	if _, err := mapDeliveryConfig(cfg); err != nil {
		return err
	}
	if _, err := mapServerConfig(cfg); err != nil {
		return err
	}
	return nil
}
