package directory

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStaticDirectoryServesConfiguredLists(t *testing.T) {
	d := NewStatic([]string{"alice", "bob"}, []string{"oncall@example.com"})

	watchers, err := d.Watchers(context.Background(), 42)
	if err != nil {
		t.Fatalf("Watchers failed: %v", err)
	}
	if len(watchers) != 2 || watchers[0] != "alice" {
		t.Fatalf("watchers = %v", watchers)
	}

	oncall, err := d.OnCall(context.Background())
	if err != nil {
		t.Fatalf("OnCall failed: %v", err)
	}
	if len(oncall) != 1 || oncall[0] != "oncall@example.com" {
		t.Fatalf("oncall = %v", oncall)
	}
}

func TestHTTPDirectoryQueriesCollaborator(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/incidents/42/watchers":
			_, _ = w.Write([]byte(`{"watchers":["alice","carol"]}`))
		case "/api/oncall":
			_, _ = w.Write([]byte(`{"oncall":["pager@example.com"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewHTTP(srv.URL+"/", "tok", time.Second)

	watchers, err := d.Watchers(context.Background(), 42)
	if err != nil {
		t.Fatalf("Watchers failed: %v", err)
	}
	if len(watchers) != 2 || watchers[1] != "carol" {
		t.Fatalf("watchers = %v", watchers)
	}
	if gotPath != "/api/incidents/42/watchers" || gotAuth != "Bearer tok" {
		t.Fatalf("request = %s auth %q", gotPath, gotAuth)
	}

	oncall, err := d.OnCall(context.Background())
	if err != nil {
		t.Fatalf("OnCall failed: %v", err)
	}
	if len(oncall) != 1 || oncall[0] != "pager@example.com" {
		t.Fatalf("oncall = %v", oncall)
	}
}

func TestHTTPDirectorySurfacesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewHTTP(srv.URL, "", time.Second)
	if _, err := d.Watchers(context.Background(), 7); err == nil {
		t.Fatal("expected error from failing directory")
	}
}

func TestNewFallsBackToStatic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := New(logger, "", "", time.Second, []string{"alice"}, nil)
	if _, ok := d.(*staticDirectory); !ok {
		t.Fatalf("expected static directory, got %T", d)
	}

	d = New(logger, "http://localhost:1", "", time.Second, nil, nil)
	if _, ok := d.(*httpDirectory); !ok {
		t.Fatalf("expected http directory, got %T", d)
	}
}
