package handlers

import (
	"context"
	"log/slog"

	"github.com/opskit/incident-events/events"
)

// Noop is where unknown event types land: a future producer may emit
// types this build does not know yet, and they must pass through
// logged, not crash anything or block the partition.
type Noop struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (h *Noop) Name() string {
	return "noop"
}

func (h *Noop) Handle(_ context.Context, ev events.Event) Outcome {
	h.logger.Warn("no handler for event type",
		"event_type", ev.Type,
		"event_id", ev.EventID,
		"incident_id", ev.IncidentID,
	)
	return Success()
}
