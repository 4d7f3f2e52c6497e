// Package notify is the delivery capability handlers depend on. The
// actual transport (SMTP, webhook) is chosen by configuration; every
// implementation classifies failures with the sentinel errors below so
// callers can tell transient delivery problems from permanently bad
// input.
package notify

import (
	"context"
	"errors"
)

type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
	ProviderID() string
}

var (
	// ErrUnavailable marks transient transport failures worth retrying.
	ErrUnavailable = errors.New("notifier unavailable")
	// ErrInvalidRecipient marks recipients that can never receive delivery.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrRejected marks requests the provider refused outright.
	ErrRejected = errors.New("notification rejected")
)
