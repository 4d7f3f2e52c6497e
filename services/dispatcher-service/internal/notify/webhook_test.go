package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWebhookSendDeliversPayload(t *testing.T) {
	var got webhookPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "sekrit", time.Second)
	err := s.Send(context.Background(), []string{"alice", "bob"}, "subject", "body")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(got.Recipients) != 2 || got.Recipients[0] != "alice" {
		t.Fatalf("recipients = %v", got.Recipients)
	}
	if got.Subject != "subject" || got.Body != "body" {
		t.Fatalf("payload = %+v", got)
	}
	if auth != "Bearer sekrit" {
		t.Fatalf("auth header = %q", auth)
	}
}

func TestWebhookClassifiesServerErrorAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", time.Second)
	err := s.Send(context.Background(), []string{"alice"}, "s", "b")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestWebhookClassifiesClientErrorAsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown channel", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", time.Second)
	err := s.Send(context.Background(), []string{"alice"}, "s", "b")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestWebhookBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", time.Second)
	for i := 0; i < 5; i++ {
		if err := s.Send(context.Background(), []string{"alice"}, "s", "b"); err == nil {
			t.Fatal("expected failure")
		}
	}
	before := hits.Load()

	// Circuit is open now: the next send must fail fast without a request.
	err := s.Send(context.Background(), []string{"alice"}, "s", "b")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from open breaker, got %v", err)
	}
	if hits.Load() != before {
		t.Fatalf("open breaker still hit the endpoint (%d -> %d)", before, hits.Load())
	}
}

func TestWebhookSkipsEmptyRecipientSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty recipients")
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", time.Second)
	if err := s.Send(context.Background(), nil, "s", "b"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}
