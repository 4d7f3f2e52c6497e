package kafkax

import (
	"context"
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" k1:9092, ,k2:9092 ")
	want := []string{"k1:9092", "k2:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitBrokers = %v, want %v", got, want)
	}
	if SplitBrokers("") != nil {
		t.Fatal("empty input should yield no brokers")
	}
}

func TestExtractEventMetaPrefersHeaders(t *testing.T) {
	msg := kafka.Message{
		Topic: "incidents.events",
		Key:   []byte("incident_42"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("ev-1")},
			{Key: "event_type", Value: []byte("incident_created")},
			{Key: "schema_version", Value: []byte("1")},
		},
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "ev-1" || meta.EventType != "incident_created" || meta.SchemaVersion != "1" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	msg := kafka.Message{
		Topic: "incidents.events",
		Key:   []byte("incident_42"),
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "incident_42" {
		t.Fatalf("event id fallback = %q, want message key", meta.EventID)
	}
	if meta.EventType != "incidents.events" {
		t.Fatalf("event type fallback = %q, want topic", meta.EventType)
	}
	if meta.SchemaVersion != "" {
		t.Fatalf("schema version = %q, want empty", meta.SchemaVersion)
	}
}

func TestInjectTraceHeadersKeepsExisting(t *testing.T) {
	in := []kafka.Header{{Key: "event_id", Value: []byte("ev-1")}}
	out := InjectTraceHeaders(context.Background(), in)
	if HeaderValue(out, "event_id") != "ev-1" {
		t.Fatal("existing headers must survive injection")
	}
}
