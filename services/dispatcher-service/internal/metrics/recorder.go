package metrics

import "time"

// Terminal results of one fetched record.
const (
	ResultCompleted    = "completed"
	ResultDuplicate    = "duplicate"
	ResultSkipped      = "skipped"
	ResultDeadLettered = "dead_lettered"
)

// Recorder defines observability hooks for the dispatch loop.
// Implementations must be safe for nil receivers so injection stays
// optional.
type Recorder interface {
	IncRecord(eventType string, result string)
	IncHandlerOutcome(handler string, outcome string)
	IncChainRetry()
	IncDeadLetter()
	ObserveProcessing(eventType string, d time.Duration)
}

// NoopRecorder is the default when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) IncRecord(string, string)                {}
func (NoopRecorder) IncHandlerOutcome(string, string)        {}
func (NoopRecorder) IncChainRetry()                          {}
func (NoopRecorder) IncDeadLetter()                          {}
func (NoopRecorder) ObserveProcessing(string, time.Duration) {}
