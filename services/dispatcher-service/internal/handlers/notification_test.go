package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/services/dispatcher-service/internal/notify"
)

type sendCall struct {
	recipients []string
	subject    string
	body       string
}

type fakeNotifier struct {
	calls []sendCall
	errs  []error
}

func (f *fakeNotifier) Send(_ context.Context, recipients []string, subject, body string) error {
	f.calls = append(f.calls, sendCall{recipients: recipients, subject: subject, body: body})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeNotifier) ProviderID() string { return "fake" }

type fakeDirectory struct {
	watchers    []string
	oncall      []string
	watchersErr error
	oncallErr   error
	oncallCalls int
}

func (f *fakeDirectory) Watchers(context.Context, int64) ([]string, error) {
	return f.watchers, f.watchersErr
}

func (f *fakeDirectory) OnCall(context.Context) ([]string, error) {
	f.oncallCalls++
	return f.oncall, f.oncallErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createdEvent() events.Event {
	return events.NewIncidentCreated(events.Incident{
		ID:         42,
		Title:      "database down",
		Priority:   events.PriorityHigh,
		Status:     events.StatusOpen,
		Category:   events.CategorySoftware,
		ReportedBy: "alice@example.com",
		AssignedTo: "bob@example.com",
	}, "alice@example.com")
}

func statusEvent(old, new events.Status) events.Event {
	return events.NewStatusUpdated(events.Incident{
		ID:         42,
		Priority:   events.PriorityMedium,
		ReportedBy: "alice@example.com",
		AssignedTo: "bob@example.com",
	}, old, new, "bob@example.com")
}

func TestNotification_CreatedRecipients(t *testing.T) {
	notifier := &fakeNotifier{}
	dir := &fakeDirectory{watchers: []string{"carol@example.com", "admin@example.com"}}
	h := NewNotification(testLogger(), notifier, dir, []string{"admin@example.com", "dave@example.com"})

	out := h.Handle(context.Background(), createdEvent())
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", out.Status, out.Reason)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(notifier.calls))
	}
	// Deduped, sorted, actor (alice) excluded.
	want := []string{"admin@example.com", "carol@example.com", "dave@example.com"}
	if !reflect.DeepEqual(notifier.calls[0].recipients, want) {
		t.Fatalf("expected recipients %v, got %v", want, notifier.calls[0].recipients)
	}
	if !strings.Contains(notifier.calls[0].subject, "New Incident #42") {
		t.Fatalf("unexpected subject %q", notifier.calls[0].subject)
	}
	if !strings.Contains(notifier.calls[0].body, "Priority: high") {
		t.Fatalf("unexpected body %q", notifier.calls[0].body)
	}
}

func TestNotification_CreatedSameRecipientsOnRedelivery(t *testing.T) {
	notifier := &fakeNotifier{}
	dir := &fakeDirectory{watchers: []string{"x@example.com", "y@example.com"}}
	h := NewNotification(testLogger(), notifier, dir, []string{"y@example.com"})

	ev := createdEvent()
	h.Handle(context.Background(), ev)
	h.Handle(context.Background(), ev)
	if len(notifier.calls) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(notifier.calls))
	}
	if !reflect.DeepEqual(notifier.calls[0].recipients, notifier.calls[1].recipients) {
		t.Fatalf("redelivery produced a different recipient set: %v vs %v",
			notifier.calls[0].recipients, notifier.calls[1].recipients)
	}
}

func TestNotification_WatcherLookupFailureIsRetryable(t *testing.T) {
	notifier := &fakeNotifier{}
	dir := &fakeDirectory{watchersErr: errors.New("directory timeout")}
	h := NewNotification(testLogger(), notifier, dir, []string{"admin@example.com"})

	out := h.Handle(context.Background(), createdEvent())
	if out.Status != StatusRetryable {
		t.Fatalf("expected retryable, got %s", out.Status)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no send before recipients are known, got %d", len(notifier.calls))
	}
}

func TestNotification_NoRecipientsIsSuccess(t *testing.T) {
	notifier := &fakeNotifier{}
	dir := &fakeDirectory{}
	h := NewNotification(testLogger(), notifier, dir, nil)

	ev := createdEvent() // no watchers, no admin list
	out := h.Handle(context.Background(), ev)
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no send for an empty recipient set, got %d", len(notifier.calls))
	}
}

func TestNotification_StatusUpdateExcludesActor(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewNotification(testLogger(), notifier, &fakeDirectory{}, nil)

	// bob is both the assignee and the actor; only alice should hear.
	out := h.Handle(context.Background(), statusEvent(events.StatusOpen, events.StatusInProgress))
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	want := []string{"alice@example.com"}
	if !reflect.DeepEqual(notifier.calls[0].recipients, want) {
		t.Fatalf("expected recipients %v, got %v", want, notifier.calls[0].recipients)
	}
	if !strings.Contains(notifier.calls[0].body, "from 'open' to 'in_progress'") {
		t.Fatalf("unexpected body %q", notifier.calls[0].body)
	}
}

func TestNotification_ResolvedUsesDistinctMessage(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewNotification(testLogger(), notifier, &fakeDirectory{}, nil)

	out := h.Handle(context.Background(), statusEvent(events.StatusInProgress, events.StatusResolved))
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	if !strings.Contains(notifier.calls[0].subject, "Resolved - Incident #42") {
		t.Fatalf("unexpected subject %q", notifier.calls[0].subject)
	}
	if notifier.calls[0].body != "Incident #42 has been resolved." {
		t.Fatalf("unexpected body %q", notifier.calls[0].body)
	}
}

func TestNotification_DeliveryErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"unavailable is retryable", notify.ErrUnavailable, StatusRetryable},
		{"invalid recipient is permanent", notify.ErrInvalidRecipient, StatusPermanent},
		{"rejected is permanent", notify.ErrRejected, StatusPermanent},
		{"unclassified is retryable", errors.New("wire cut"), StatusRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &fakeNotifier{errs: []error{tc.err}}
			h := NewNotification(testLogger(), notifier, &fakeDirectory{}, nil)
			out := h.Handle(context.Background(), statusEvent(events.StatusOpen, events.StatusInProgress))
			if out.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, out.Status)
			}
		})
	}
}

func TestRecipientSet(t *testing.T) {
	got := recipientSet([]string{"b@x", " a@x ", "", "b@x", "actor@x", "c@x"}, "actor@x")
	want := []string{"a@x", "b@x", "c@x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
