// Package publisher appends incident events to the broker log. It is
// called synchronously from the collaborator's mutation path right
// after the incident record commits, so writes are bounded by a
// timeout and never retried here; the caller logs a failed publish and
// moves on (the committed record is never rolled back for it).
package publisher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/libs/kafkax"
)

// ErrPublish wraps broker-side failures (unreachable, timeout) so the
// caller can tell "event never reached the log" from its own errors.
var ErrPublish = errors.New("publish failed")

type Config struct {
	Brokers string
	Topic   string
	// PublishTimeout bounds one Publish call end to end. Default 5s.
	PublishTimeout time.Duration
	// BatchTimeout is how long the writer may hold a message hoping to
	// batch it. Kept short because Publish sits on a request path.
	BatchTimeout time.Duration
}

type Publisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func New(cfg Config) (*Publisher, error) {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic not configured")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
	})
	return &Publisher{writer: writer, timeout: cfg.PublishTimeout}, nil
}

// Publish validates, encodes and writes one event. The hash balancer
// maps the partition key to a partition, so all events of one incident
// stay ordered relative to each other.
func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := otel.Tracer("kafka").Start(ctx, "kafka.publish",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", p.writer.Topic),
			attribute.String("event.type", string(ev.Type)),
		),
	)
	defer span.End()

	msg, err := messageFor(ctx, ev)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func messageFor(ctx context.Context, ev events.Event) (kafka.Message, error) {
	if err := ev.Validate(); err != nil {
		return kafka.Message{}, fmt.Errorf("validate event: %w", err)
	}
	raw, err := ev.Encode()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   ev.PartitionKey(),
		Value: raw,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "schema_version", Value: []byte(strconv.Itoa(ev.SchemaVersion))},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return msg, nil
}
