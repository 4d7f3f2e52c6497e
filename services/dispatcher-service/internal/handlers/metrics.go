package handlers

import (
	"context"
	"log/slog"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/metrics"
)

// Metrics counts events by type, priority and status snapshot. Metrics
// loss is tolerated and never grounds for redelivery: a failed sink
// write is a permanent outcome (dead-lettered for audit), not a
// retryable one.
type Metrics struct {
	logger *slog.Logger
	sink   metrics.CounterSink
}

func NewMetrics(logger *slog.Logger, sink metrics.CounterSink) *Metrics {
	return &Metrics{logger: logger, sink: sink}
}

func (h *Metrics) Name() string {
	return "metrics"
}

func (h *Metrics) Handle(ctx context.Context, ev events.Event) Outcome {
	err := h.sink.Inc(ctx, string(ev.Type), string(ev.Priority), string(ev.StatusSnapshot()))
	if err != nil {
		h.logger.Error("metrics sink write failed",
			"incident_id", ev.IncidentID,
			"event_id", ev.EventID,
			"err", err,
		)
		return Permanent("metrics sink unavailable: " + err.Error())
	}
	return Success()
}
