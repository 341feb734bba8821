// Package delivery sends due reminders back to their callback URLs.
//
// Each due reminder gets exactly one delivery attempt: a JSON-RPC message/push
// POST with a bounded timeout. Failures are logged and the reminder is
// discarded; there is no retry and no persistence. Deliveries within a batch
// are independent and concurrent.
//
// # History
//
// For debugging and operator visibility, the service keeps a small in-memory
// history of recent delivery outcomes.
package delivery
