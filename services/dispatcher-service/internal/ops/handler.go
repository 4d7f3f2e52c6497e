// Package ops is the read-only operational surface of the dispatcher:
// dead letter inspection and counter stats. Liveness, readiness and
// prometheus metrics are mounted next to it in main.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/opskit/incident-events/services/dispatcher-service/internal/deadletter"
)

const maxListLimit = 500

// StatsSource reads back the accumulated incident counters.
type StatsSource interface {
	Totals(ctx context.Context) (map[string]int64, error)
}

type Handler struct {
	deadLetters deadletter.Store
	stats       StatsSource
}

// New builds the ops handler. stats may be nil when no counter backend
// is configured; the endpoint then reports not found.
func New(deadLetters deadletter.Store, stats StatsSource) *Handler {
	return &Handler{deadLetters: deadLetters, stats: stats}
}

type deadLetterView struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	IncidentID int64           `json:"incident_id"`
	Payload    json.RawMessage `json:"payload"`
	LastError  string          `json:"last_error"`
	Attempts   int             `json:"attempts"`
	FailedAt   time.Time       `json:"failed_at"`
}

func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.deadLetters.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to list dead letters", http.StatusInternalServerError)
		return
	}

	views := make([]deadLetterView, 0, len(entries))
	for _, e := range entries {
		views = append(views, deadLetterView{
			EventID:    e.EventID,
			EventType:  e.EventType,
			IncidentID: e.IncidentID,
			Payload:    json.RawMessage(e.Payload),
			LastError:  e.LastError,
			Attempts:   e.Attempts,
			FailedAt:   e.FailedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"dead_letters": views,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.stats == nil {
		http.Error(w, "stats backend not configured", http.StatusNotFound)
		return
	}

	totals, err := h.stats.Totals(r.Context())
	if err != nil {
		http.Error(w, "failed to read stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"totals": totals,
	})
}
