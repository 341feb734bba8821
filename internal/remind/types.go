// Package remind holds the reminder domain: the command grammar and the
// in-memory store of pending reminders.
package remind

import "time"

// Reminder is a scheduled notification awaiting delivery.
//
// A Reminder is immutable once created; its only state is membership in the
// Store (present = pending, absent = delivered or discarded).
type Reminder struct {
	FireAt      time.Time
	Text        string
	CallbackURL string
	ContextID   string
}
