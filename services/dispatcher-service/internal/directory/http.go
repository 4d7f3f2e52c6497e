package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type httpDirectory struct {
	base  string
	token string
	http  *http.Client
}

// NewHTTP queries the collaborator's directory endpoints. Failures are
// returned to the caller, which treats them as transient (the incident
// record owning the watcher list may be briefly unreachable).
func NewHTTP(base string, token string, timeout time.Duration) Directory {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpDirectory{
		base:  strings.TrimRight(strings.TrimSpace(base), "/"),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (d *httpDirectory) Watchers(ctx context.Context, incidentID int64) ([]string, error) {
	var out struct {
		Watchers []string `json:"watchers"`
	}
	url := d.base + "/api/incidents/" + strconv.FormatInt(incidentID, 10) + "/watchers"
	if err := d.get(ctx, url, &out); err != nil {
		return nil, err
	}
	return out.Watchers, nil
}

func (d *httpDirectory) OnCall(ctx context.Context) ([]string, error) {
	var out struct {
		OnCall []string `json:"oncall"`
	}
	if err := d.get(ctx, d.base+"/api/oncall", &out); err != nil {
		return nil, err
	}
	return out.OnCall, nil
}

func (d *httpDirectory) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("directory returned status %d for %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
