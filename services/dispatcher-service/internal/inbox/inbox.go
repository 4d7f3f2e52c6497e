// Package inbox remembers which event ids already reached a terminal
// outcome. The dispatcher consults it before running handlers so a
// restart or rebalance does not repeat side effects, and marks it only
// AFTER the terminal outcome: marking first would turn a crash between
// mark and handlers into silent loss.
package inbox

import "context"

const (
	OutcomeCompleted    = "completed"
	OutcomeDeadLettered = "dead_lettered"
)

type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string, eventType string, outcome string) error
}
