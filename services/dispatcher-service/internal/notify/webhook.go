package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// WebhookSender POSTs notifications to a single configured endpoint
// (chat bridge, paging relay). Repeated transport failures open a
// circuit breaker so a dead endpoint fails fast instead of holding the
// partition on per-request timeouts.
type WebhookSender struct {
	url     string
	token   string
	http    *http.Client
	breaker circuitbreaker.CircuitBreaker[*http.Response]
}

type webhookPayload struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

func NewWebhookSender(url string, token string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: timeout,
		},
		breaker: circuitbreaker.New[*http.Response](circuitbreaker.Config{
			MaxRequests: 10,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (s *WebhookSender) ProviderID() string {
	return "webhook"
}

func (s *WebhookSender) Send(ctx context.Context, recipients []string, subject string, body string) error {
	if s.url == "" {
		return fmt.Errorf("%w: webhook url not configured", ErrUnavailable)
	}
	if len(recipients) == 0 {
		return nil
	}

	raw, err := json.Marshal(webhookPayload{
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
	})
	if err != nil {
		return err
	}

	_, err = s.breaker.Execute(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, detail)
		default:
			return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, detail)
		}
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRejected) {
			return err
		}
		// Open breaker and other unclassified failures are transient.
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
