package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/directory"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/notify"
)

// Notification delivers the plain lifecycle notifications. Recipients
// for a created incident are its watchers plus the admin distribution
// list; for a status change, the assignee and the reporter. The actor
// who caused the mutation is never notified about their own change.
type Notification struct {
	logger    *slog.Logger
	notifier  notify.Notifier
	directory directory.Directory
	admins    []string
}

func NewNotification(logger *slog.Logger, notifier notify.Notifier, dir directory.Directory, admins []string) *Notification {
	return &Notification{
		logger:    logger,
		notifier:  notifier,
		directory: dir,
		admins:    admins,
	}
}

func (h *Notification) Name() string {
	return "notification"
}

func (h *Notification) Handle(ctx context.Context, ev events.Event) Outcome {
	switch ev.Type {
	case events.TypeIncidentCreated:
		return h.handleCreated(ctx, ev)
	case events.TypeStatusUpdated:
		return h.handleStatusUpdated(ctx, ev)
	}
	return Success()
}

func (h *Notification) handleCreated(ctx context.Context, ev events.Event) Outcome {
	watchers, err := h.directory.Watchers(ctx, ev.IncidentID)
	if err != nil {
		return Retryable("watcher lookup failed: " + err.Error())
	}

	recipients := recipientSet(append(watchers, h.admins...), ev.Actor)
	if len(recipients) == 0 {
		return Success()
	}

	subject := fmt.Sprintf("[Incident Management] New Incident #%d: %s", ev.IncidentID, ev.Title)
	body := fmt.Sprintf("Incident #%d: %s\nPriority: %s\nCategory: %s\nStatus: %s\nReported by: %s",
		ev.IncidentID, ev.Title, ev.Priority, ev.Category, ev.Status, ev.ReportedBy)

	return h.deliver(ctx, ev, recipients, subject, body)
}

func (h *Notification) handleStatusUpdated(ctx context.Context, ev events.Event) Outcome {
	recipients := recipientSet([]string{ev.AssignedTo, ev.ReportedBy}, ev.Actor)
	if len(recipients) == 0 {
		return Success()
	}

	var subject, body string
	if ev.NewStatus == events.StatusResolved {
		subject = fmt.Sprintf("[Incident Management] Resolved - Incident #%d", ev.IncidentID)
		body = fmt.Sprintf("Incident #%d has been resolved.", ev.IncidentID)
	} else {
		subject = fmt.Sprintf("[Incident Management] Status Update - Incident #%d", ev.IncidentID)
		body = fmt.Sprintf("Incident #%d status changed from '%s' to '%s'", ev.IncidentID, ev.OldStatus, ev.NewStatus)
	}

	return h.deliver(ctx, ev, recipients, subject, body)
}

func (h *Notification) deliver(ctx context.Context, ev events.Event, recipients []string, subject, body string) Outcome {
	if err := h.notifier.Send(ctx, recipients, subject, body); err != nil {
		h.logger.Warn("notification delivery failed",
			"incident_id", ev.IncidentID,
			"event_id", ev.EventID,
			"provider", h.notifier.ProviderID(),
			"err", err,
		)
		return classifyNotifyError(err)
	}
	h.logger.Info("notification sent",
		"incident_id", ev.IncidentID,
		"event_type", ev.Type,
		"recipients", len(recipients),
	)
	return Success()
}

// recipientSet dedupes, drops empties and the acting user, and sorts,
// so redelivery of the same event always produces the same set.
func recipientSet(candidates []string, actor string) []string {
	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || c == actor || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
