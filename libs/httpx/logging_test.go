package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func accessLogged(t *testing.T, path string, status int) string {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}), WithRequestID, WithAccessLog(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return buf.String()
}

func TestAccessLogDemotesProbePaths(t *testing.T) {
	line := accessLogged(t, "/healthz", http.StatusOK)
	if !strings.Contains(line, `"level":"DEBUG"`) {
		t.Fatalf("healthy probe should log at debug: %s", line)
	}

	line = accessLogged(t, "/api/deadletters", http.StatusOK)
	if !strings.Contains(line, `"level":"INFO"`) {
		t.Fatalf("api traffic should log at info: %s", line)
	}
}

func TestAccessLogKeepsFailingProbesAtInfo(t *testing.T) {
	line := accessLogged(t, "/readyz", http.StatusServiceUnavailable)
	if !strings.Contains(line, `"level":"INFO"`) {
		t.Fatalf("failing probe should stay visible: %s", line)
	}
	if !strings.Contains(line, `"status":503`) {
		t.Fatalf("status missing from access log: %s", line)
	}
}

func TestAccessLogCarriesRequestID(t *testing.T) {
	line := accessLogged(t, "/api/stats", http.StatusOK)
	if !strings.Contains(line, `"request_id":"`) || strings.Contains(line, `"request_id":""`) {
		t.Fatalf("request id missing: %s", line)
	}
}
