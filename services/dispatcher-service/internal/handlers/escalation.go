package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/directory"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/notify"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/policy"
)

// Escalation consults the escalation policy and, when indicated, sends
// a distinct escalation notification to the tier's recipients. It
// never mutates incident state.
type Escalation struct {
	logger    *slog.Logger
	notifier  notify.Notifier
	directory directory.Directory
	leads     []string
}

func NewEscalation(logger *slog.Logger, notifier notify.Notifier, dir directory.Directory, leads []string) *Escalation {
	return &Escalation{
		logger:    logger,
		notifier:  notifier,
		directory: dir,
		leads:     leads,
	}
}

func (h *Escalation) Name() string {
	return "escalation"
}

func (h *Escalation) Handle(ctx context.Context, ev events.Event) Outcome {
	decision := policy.Decide(policy.Input{
		Type:      ev.Type,
		Priority:  ev.Priority,
		NewStatus: ev.NewStatus,
	})
	if !decision.Escalate {
		return Success()
	}

	recipients := make([]string, 0, len(h.leads))
	recipients = append(recipients, h.leads...)
	if decision.Tier == policy.TierOnCall {
		oncall, err := h.directory.OnCall(ctx)
		if err != nil {
			return Retryable("on-call lookup failed: " + err.Error())
		}
		recipients = append(recipients, oncall...)
	}
	recipients = recipientSet(recipients, "")
	if len(recipients) == 0 {
		return Success()
	}

	h.logger.Warn("escalation triggered",
		"incident_id", ev.IncidentID,
		"priority", ev.Priority,
		"tier", decision.Tier,
		"reason", decision.Reason,
	)

	subject := fmt.Sprintf("[Incident Management] Escalation - Incident #%d", ev.IncidentID)
	body := fmt.Sprintf("Escalation triggered for incident #%d (%s priority): %s", ev.IncidentID, ev.Priority, decision.Reason)
	if ev.Title != "" {
		body += "\nTitle: " + ev.Title
	}

	if err := h.notifier.Send(ctx, recipients, subject, body); err != nil {
		h.logger.Warn("escalation delivery failed",
			"incident_id", ev.IncidentID,
			"event_id", ev.EventID,
			"err", err,
		)
		return classifyNotifyError(err)
	}
	return Success()
}
