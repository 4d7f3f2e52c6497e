package notify

import "context"

// NoopSender is the dev default when neither SMTP nor webhook is
// configured. It accepts everything.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "noop"
}

func (s *NoopSender) Send(_ context.Context, _ []string, _ string, _ string) error {
	return nil
}
