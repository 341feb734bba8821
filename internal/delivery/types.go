package delivery

import "time"

// Config controls the outbound push dispatcher.
type Config struct {
	// Timeout bounds a single outbound POST attempt. Default 10s.
	Timeout time.Duration

	// RatePerSec throttles outbound sends across all deliveries.
	// 0 disables throttling.
	RatePerSec int

	// HistorySize caps the in-memory outcome history. Default 100.
	HistorySize int
}

type HistoryItem struct {
	At        time.Time `json:"at"`
	ContextID string    `json:"context_id"`
	Text      string    `json:"text"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// Event is emitted on the event bus for delivery outcomes.
// Keep it small; Data may be logged/serialized by subscribers.
type Event struct {
	ContextID string    `json:"context_id"`
	URL       string    `json:"url"`
	At        time.Time `json:"at"`
	Error     string    `json:"error,omitempty"`
}
