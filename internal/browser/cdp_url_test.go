package browser

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveCDPURLPassesWebSocketURLThrough(t *testing.T) {
	got, err := resolveCDPURL(context.Background(), "ws://example/devtools/browser/abc")
	if err != nil {
		t.Fatalf("resolveCDPURL returned error: %v", err)
	}
	if got != "ws://example/devtools/browser/abc" {
		t.Fatalf("expected websocket url unchanged, got %q", got)
	}
}

func TestResolveCDPURLQueriesDevToolsVersionEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			t.Errorf("unexpected request path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"webSocketDebuggerUrl":"ws://resolved/devtools/browser/xyz"}`))
	}))
	t.Cleanup(server.Close)

	hostPort := strings.TrimPrefix(server.URL, "http://")
	_, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		t.Fatalf("split hostPort: %v", err)
	}

	for _, raw := range []string{server.URL, hostPort, port} {
		got, err := resolveCDPURL(context.Background(), raw)
		if err != nil {
			t.Fatalf("resolveCDPURL(%q) returned error: %v", raw, err)
		}
		if got != "ws://resolved/devtools/browser/xyz" {
			t.Fatalf("resolveCDPURL(%q) = %q, expected resolved websocket url", raw, got)
		}
	}
}

func TestResolveCDPURLErrorsOnMissingDebuggerURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"webSocketDebuggerUrl":""}`))
	}))
	t.Cleanup(server.Close)

	if _, err := resolveCDPURL(context.Background(), server.URL); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestResolveCDPURLRejectsUnsupportedScheme(t *testing.T) {
	if _, err := resolveCDPURL(context.Background(), "ftp://127.0.0.1:9222"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
