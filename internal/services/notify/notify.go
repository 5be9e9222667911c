// Package notify delivers fire-and-forget user-facing messages.
// Delivery is best-effort and never part of core correctness.
package notify

import "log"

// Notifier receives human-readable success and error messages
type Notifier interface {
	Success(userID, message string)
	Error(userID, message string)
}

// LogNotifier writes notifications to the server log. It stands in for
// a real delivery channel (email, push) in development.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Success logs a success message
func (n *LogNotifier) Success(userID, message string) {
	log.Printf("notify user=%s: %s", userID, message)
}

// Error logs an error message
func (n *LogNotifier) Error(userID, message string) {
	log.Printf("notify user=%s (error): %s", userID, message)
}
