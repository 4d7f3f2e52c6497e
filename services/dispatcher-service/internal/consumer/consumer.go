// Package consumer owns the dispatch loop: fetch a record, resolve it
// to a terminal outcome, then commit its offset. Offsets are committed
// explicitly and only after the record completed, was recognized as a
// duplicate, was skipped as undecodable, or was written to the dead
// letter store. Crashing mid-record therefore redelivers it.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/libs/kafkax"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/deadletter"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/handlers"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/inbox"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sentinels carrying chain outcomes through the retrier. Permanent
// outcomes are registered as non-retryable so the retrier returns
// immediately instead of burning attempts.
var (
	errRetryableOutcome = errors.New("retryable handler outcome")
	errPermanentOutcome = errors.New("permanent handler outcome")
)

// bookkeepTimeout bounds the terminal writes (dead letter, inbox,
// commit) separately from handler work, so an expired processing
// deadline cannot strand a record without an outcome.
const bookkeepTimeout = 10 * time.Second

type Config struct {
	Brokers string
	GroupID string
	Topic   string
	// MaxAttempts caps chain runs per record, first attempt included.
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	// ProcessTimeout bounds one record's handler work, retries and
	// backoff included.
	ProcessTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.GroupID == "" {
		c.GroupID = "incident-management-consumer"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.BackoffMultiplier <= 1 {
		c.BackoffMultiplier = 2.0
	}
	if c.ProcessTimeout <= 0 {
		c.ProcessTimeout = 30 * time.Second
	}
	return c
}

// Chain is the handler pipeline a decoded event runs through.
type Chain interface {
	Run(ctx context.Context, ev events.Event) handlers.Outcome
}

// Deps are the collaborators of the loop. Recorder and Unknown may be
// nil; they default to no-ops.
type Deps struct {
	Chain       Chain
	Unknown     handlers.Handler
	Inbox       inbox.Inbox
	DeadLetters deadletter.Store
	Recorder    metrics.Recorder
}

type Consumer struct {
	logger         *slog.Logger
	reader         *kafka.Reader
	chain          Chain
	unknown        handlers.Handler
	inbox          inbox.Inbox
	deadLetters    deadletter.Store
	recorder       metrics.Recorder
	retrier        retry.Retry[handlers.Outcome]
	processTimeout time.Duration

	// commit is swapped out by tests.
	commit func(ctx context.Context, msg kafka.Message) error
}

func New(logger *slog.Logger, cfg Config, deps Deps) *Consumer {
	cfg = cfg.withDefaults()
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		// New groups start at the tail; the dispatcher reacts to live
		// events, it does not reprocess history.
		StartOffset: kafka.LastOffset,
	})

	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	unknown := deps.Unknown
	if unknown == nil {
		unknown = handlers.NewNoop(logger)
	}

	c := &Consumer{
		logger:      logger,
		reader:      reader,
		chain:       deps.Chain,
		unknown:     unknown,
		inbox:       deps.Inbox,
		deadLetters: deps.DeadLetters,
		recorder:    recorder,
		retrier: retry.New[handlers.Outcome](retry.Config{
			MaxAttempts:        cfg.MaxAttempts,
			InitialDelay:       cfg.InitialBackoff,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         cfg.BackoffMultiplier,
			NonRetryableErrors: []error{errPermanentOutcome},
		}),
		processTimeout: cfg.ProcessTimeout,
	}
	c.commit = func(ctx context.Context, msg kafka.Message) error {
		return reader.CommitMessages(ctx, msg)
	}
	return c
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		// Detached from the run context so shutdown lets the in-flight
		// record reach a terminal outcome instead of abandoning it
		// mid-handler. Still bounded: handler budget plus margin for
		// the dedupe lookup and the terminal writes.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.processTimeout+2*bookkeepTimeout)
		c.processRecord(recCtx, msg)
		cancel()

		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Consumer) processRecord(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	meta := kafkax.ExtractEventMeta(msg)

	ctx = kafkax.ExtractTraceContext(ctx, msg)
	ctx, span := otel.Tracer("kafka").Start(ctx, "kafka.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	ev, err := events.Decode(msg.Value)
	switch {
	case err == nil:
	case errors.Is(err, events.ErrUnknownType):
		// Envelope is sound, type is from a future producer. Route to
		// the fallback handler and move on.
		c.unknown.Handle(ctx, ev)
		c.recorder.IncRecord(string(ev.Type), metrics.ResultSkipped)
		c.commitRecord(ctx, msg, meta.EventID)
		c.recorder.ObserveProcessing(string(ev.Type), time.Since(start))
		return
	default:
		// Structurally unusable: bad JSON, wrong schema version or a
		// broken envelope. Log and commit; there is nothing to retry
		// and no reliable identity to dead letter under.
		c.logger.Warn("skipping undecodable record",
			"err", err,
			"event_id", meta.EventID,
			"event_type", meta.EventType,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		span.RecordError(err)
		c.recorder.IncRecord(typeLabel(meta), metrics.ResultSkipped)
		c.commitRecord(ctx, msg, meta.EventID)
		c.recorder.ObserveProcessing(typeLabel(meta), time.Since(start))
		return
	}

	defer func() {
		c.recorder.ObserveProcessing(string(ev.Type), time.Since(start))
	}()

	seen, err := c.inbox.Seen(ctx, ev.EventID)
	if err != nil {
		// Without the dedupe answer nothing is safe; leave the offset
		// uncommitted and let redelivery try again.
		c.logger.Error("inbox lookup failed", "err", err, "event_id", ev.EventID)
		span.RecordError(err)
		return
	}
	if seen {
		c.logger.Info("duplicate event ignored", "event_id", ev.EventID, "event_type", ev.Type)
		c.recorder.IncRecord(string(ev.Type), metrics.ResultDuplicate)
		c.commitRecord(ctx, msg, ev.EventID)
		return
	}

	if err := ev.Validate(); err != nil {
		// A known type with unusable content never becomes processable;
		// dead letter it without running handlers.
		c.finishDeadLetter(ctx, span, msg, ev, handlers.Permanent("invalid event content: "+err.Error()), 0)
		return
	}

	workCtx, cancel := context.WithTimeout(ctx, c.processTimeout)
	out, attempts := c.dispatch(workCtx, ev)
	cancel()

	if out.Status == handlers.StatusSuccess {
		c.finishCompleted(ctx, msg, ev, attempts)
		return
	}
	c.finishDeadLetter(ctx, span, msg, ev, out, attempts)
}

// dispatch runs the chain under the retry policy and reports the final
// outcome with the number of attempts made. A non-success return means
// the outcome is terminal: permanent, or retryable with the attempt
// budget or the processing deadline spent.
func (c *Consumer) dispatch(ctx context.Context, ev events.Event) (handlers.Outcome, int) {
	var last handlers.Outcome
	attempts := 0
	_, err := c.retrier.Do(ctx, func(ctx context.Context) (handlers.Outcome, error) {
		attempts++
		if attempts > 1 {
			c.recorder.IncChainRetry()
			c.logger.Info("retrying handler chain",
				"event_id", ev.EventID,
				"attempt", attempts,
				"reason", last.Reason,
			)
		}
		last = c.chain.Run(ctx, ev)
		switch last.Status {
		case handlers.StatusRetryable:
			return last, fmt.Errorf("%w: %s", errRetryableOutcome, last.Reason)
		case handlers.StatusPermanent:
			return last, fmt.Errorf("%w: %s", errPermanentOutcome, last.Reason)
		}
		return last, nil
	})
	if err != nil && last.Status == "" {
		// The deadline fired before a single chain run finished.
		last = handlers.Retryable("processing aborted: " + err.Error())
	}
	return last, attempts
}

func (c *Consumer) finishCompleted(ctx context.Context, msg kafka.Message, ev events.Event, attempts int) {
	ctx, cancel := context.WithTimeout(ctx, bookkeepTimeout)
	defer cancel()

	// Mark before commit. If the mark is lost the record redelivers and
	// dedupes; commit failure alone is covered the same way.
	if err := c.inbox.Mark(ctx, ev.EventID, string(ev.Type), inbox.OutcomeCompleted); err != nil {
		c.logger.Error("inbox mark failed", "err", err, "event_id", ev.EventID)
	}
	c.commitRecord(ctx, msg, ev.EventID)
	c.recorder.IncRecord(string(ev.Type), metrics.ResultCompleted)
	c.logger.Info("event processed",
		"event_id", ev.EventID,
		"event_type", ev.Type,
		"incident_id", ev.IncidentID,
		"attempts", attempts,
	)
}

func (c *Consumer) finishDeadLetter(ctx context.Context, span trace.Span, msg kafka.Message, ev events.Event, out handlers.Outcome, attempts int) {
	ctx, cancel := context.WithTimeout(ctx, bookkeepTimeout)
	defer cancel()

	entry := deadletter.Entry{
		EventID:    ev.EventID,
		EventType:  string(ev.Type),
		IncidentID: ev.IncidentID,
		Payload:    msg.Value,
		LastError:  out.Reason,
		Attempts:   attempts,
		FailedAt:   time.Now().UTC(),
	}
	if err := c.deadLetters.Append(ctx, entry); err != nil {
		// The record must not vanish: without a dead letter row the
		// offset stays uncommitted and the record redelivers.
		c.logger.Error("dead letter append failed", "err", err, "event_id", ev.EventID)
		span.RecordError(err)
		return
	}

	if err := c.inbox.Mark(ctx, ev.EventID, string(ev.Type), inbox.OutcomeDeadLettered); err != nil {
		c.logger.Error("inbox mark failed", "err", err, "event_id", ev.EventID)
	}
	c.commitRecord(ctx, msg, ev.EventID)
	c.recorder.IncDeadLetter()
	c.recorder.IncRecord(string(ev.Type), metrics.ResultDeadLettered)
	c.logger.Error("event dead lettered",
		"event_id", ev.EventID,
		"event_type", ev.Type,
		"incident_id", ev.IncidentID,
		"attempts", attempts,
		"reason", out.Reason,
	)
}

func (c *Consumer) commitRecord(ctx context.Context, msg kafka.Message, eventID string) {
	if err := c.commit(ctx, msg); err != nil {
		// Redelivery after a lost commit is absorbed by the inbox.
		c.logger.Error("offset commit failed", "err", err, "event_id", eventID)
	}
}

func typeLabel(meta kafkax.EventMeta) string {
	if meta.EventType != "" {
		return meta.EventType
	}
	return "unknown"
}
