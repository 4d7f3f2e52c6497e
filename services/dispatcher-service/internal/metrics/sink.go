// Package metrics carries two concerns: the domain counter sink the
// Metrics Handler writes incident counters to, and the Recorder the
// dispatch loop reports its own health through.
package metrics

import "context"

// CounterSink accumulates incident event counters keyed by event type,
// priority and status snapshot. Sinks are shared infrastructure, so
// Inc returns an error; the Metrics Handler decides what a failed
// write means (never a retry).
type CounterSink interface {
	Inc(ctx context.Context, eventType string, priority string, status string) error
}

type NoopSink struct{}

func (NoopSink) Inc(context.Context, string, string, string) error {
	return nil
}

// MultiSink fans one increment out to several sinks. Every sink is
// attempted; the first error is reported so the caller still learns
// about a lost write.
type MultiSink []CounterSink

func (m MultiSink) Inc(ctx context.Context, eventType string, priority string, status string) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Inc(ctx, eventType, priority, status); err != nil && first == nil {
			first = err
		}
	}
	return first
}
