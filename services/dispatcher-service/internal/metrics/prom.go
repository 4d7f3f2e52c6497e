package metrics

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PromSink counts incident events in-process, scraped via /metrics.
type PromSink struct {
	counter *prom.CounterVec
}

func NewPromSink(reg *prom.Registry) *PromSink {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	c := prom.NewCounterVec(prom.CounterOpts{
		Namespace: "incidents",
		Name:      "events_total",
		Help:      "Incident events by type, priority and status snapshot",
	}, []string{"event_type", "priority", "status"})
	reg.MustRegister(c)
	return &PromSink{counter: c}
}

func (s *PromSink) Inc(_ context.Context, eventType string, priority string, status string) error {
	if s == nil || s.counter == nil {
		return nil
	}
	s.counter.WithLabelValues(eventType, priority, status).Inc()
	return nil
}
