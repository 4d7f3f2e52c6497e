package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder on a prometheus registry.
type PrometheusRecorder struct {
	records         *prom.CounterVec
	handlerOutcomes *prom.CounterVec
	chainRetries    prom.Counter
	deadLetters     prom.Counter
	processing      *prom.HistogramVec
}

func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		records: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dispatcher",
			Name:      "records_total",
			Help:      "Records fetched from the topic by terminal result",
		}, []string{"event_type", "result"}),
		handlerOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dispatcher",
			Name:      "handler_outcomes_total",
			Help:      "Per-handler outcomes per attempt",
		}, []string{"handler", "outcome"}),
		chainRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: "dispatcher",
			Name:      "chain_retries_total",
			Help:      "Full handler chain retries after a retryable outcome",
		}),
		deadLetters: prom.NewCounter(prom.CounterOpts{
			Namespace: "dispatcher",
			Name:      "dead_letter_total",
			Help:      "Records routed to the dead-letter store",
		}),
		processing: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dispatcher",
			Name:      "processing_duration_seconds",
			Help:      "Per-record processing time including retries",
			Buckets:   prom.DefBuckets,
		}, []string{"event_type"}),
	}
	reg.MustRegister(pr.records, pr.handlerOutcomes, pr.chainRetries, pr.deadLetters, pr.processing)
	return pr
}

func (p *PrometheusRecorder) IncRecord(eventType string, result string) {
	if p == nil || p.records == nil {
		return
	}
	p.records.WithLabelValues(eventType, result).Inc()
}

func (p *PrometheusRecorder) IncHandlerOutcome(handler string, outcome string) {
	if p == nil || p.handlerOutcomes == nil {
		return
	}
	p.handlerOutcomes.WithLabelValues(handler, outcome).Inc()
}

func (p *PrometheusRecorder) IncChainRetry() {
	if p == nil || p.chainRetries == nil {
		return
	}
	p.chainRetries.Inc()
}

func (p *PrometheusRecorder) IncDeadLetter() {
	if p == nil || p.deadLetters == nil {
		return
	}
	p.deadLetters.Inc()
}

func (p *PrometheusRecorder) ObserveProcessing(eventType string, d time.Duration) {
	if p == nil || p.processing == nil {
		return
	}
	p.processing.WithLabelValues(eventType).Observe(d.Seconds())
}
