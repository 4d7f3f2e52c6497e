package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/metrics"
)

// Chain applies handlers in a fixed order. Every handler is always
// attempted: a metrics failure must never suppress a notification.
// Aggregation: any permanent outcome wins over any retryable one,
// which wins over success.
type Chain struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	handlers []Handler
}

func NewChain(logger *slog.Logger, recorder metrics.Recorder, hs ...Handler) *Chain {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Chain{logger: logger, recorder: recorder, handlers: hs}
}

func (c *Chain) Run(ctx context.Context, ev events.Event) Outcome {
	agg := Success()
	for _, h := range c.handlers {
		out := c.runOne(ctx, h, ev)
		c.recorder.IncHandlerOutcome(h.Name(), string(out.Status))

		switch out.Status {
		case StatusPermanent:
			c.logger.Error("handler permanent failure",
				"handler", h.Name(),
				"event_id", ev.EventID,
				"reason", out.Reason,
			)
			if agg.Status != StatusPermanent {
				agg = Outcome{Status: StatusPermanent, Reason: h.Name() + ": " + out.Reason}
			}
		case StatusRetryable:
			c.logger.Warn("handler retryable failure",
				"handler", h.Name(),
				"event_id", ev.EventID,
				"reason", out.Reason,
			)
			if agg.Status == StatusSuccess {
				agg = Outcome{Status: StatusRetryable, Reason: h.Name() + ": " + out.Reason}
			}
		}
	}
	return agg
}

// runOne isolates a handler call: a panic is recovered at this
// boundary and classified as that handler's permanent failure, so
// nothing a handler does can crash the dispatch loop.
func (c *Chain) runOne(ctx context.Context, h Handler, ev events.Event) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic recovered",
				"handler", h.Name(),
				"event_id", ev.EventID,
				"panic", fmt.Sprint(r),
			)
			out = Permanent(fmt.Sprintf("handler panicked: %v", r))
		}
	}()
	return h.Handle(ctx, ev)
}
