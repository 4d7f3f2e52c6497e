// Package directory resolves the externally-owned pieces of the
// recipient model: per-incident watchers live with the incident record
// in the collaborator, and the on-call roster rotates outside this
// service. Admin and lead lists are plain configuration and do not go
// through here.
package directory

import (
	"context"
	"log/slog"
	"time"
)

type Directory interface {
	Watchers(ctx context.Context, incidentID int64) ([]string, error)
	OnCall(ctx context.Context) ([]string, error)
}

// New selects the implementation: the collaborator's HTTP API when a
// base URL is configured, otherwise static lists.
func New(logger *slog.Logger, baseURL string, token string, timeout time.Duration, watchers []string, oncall []string) Directory {
	if baseURL == "" {
		return NewStatic(watchers, oncall)
	}
	logger.Info("http directory enabled", "base_url", baseURL)
	return NewHTTP(baseURL, token, timeout)
}
