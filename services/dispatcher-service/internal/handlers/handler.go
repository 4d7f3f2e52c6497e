// Package handlers contains the tri-state handler contract and the
// fixed handler set the dispatcher routes events through. An outcome
// is a first-class decision, not log noise: it drives the retry and
// dead-letter policy.
package handlers

import (
	"context"
	"errors"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/notify"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusRetryable Status = "retryable"
	StatusPermanent Status = "permanent"
)

type Outcome struct {
	Status Status
	Reason string
}

func Success() Outcome {
	return Outcome{Status: StatusSuccess}
}

func Retryable(reason string) Outcome {
	return Outcome{Status: StatusRetryable, Reason: reason}
}

func Permanent(reason string) Outcome {
	return Outcome{Status: StatusPermanent, Reason: reason}
}

type Handler interface {
	Name() string
	Handle(ctx context.Context, ev events.Event) Outcome
}

// classifyNotifyError maps notifier sentinel errors onto outcomes:
// bad input is permanent, everything else is worth another attempt.
func classifyNotifyError(err error) Outcome {
	if errors.Is(err, notify.ErrInvalidRecipient) || errors.Is(err, notify.ErrRejected) {
		return Permanent(err.Error())
	}
	return Retryable(err.Error())
}
