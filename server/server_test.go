package server

import (
	"bufio"
	"context"
	"io"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/GoCodeAlone/tasklist/config"
	"github.com/GoCodeAlone/tasklist/events"
	"github.com/GoCodeAlone/tasklist/task"
)

func newTestServer(t *testing.T, basePath string) (*httptest.Server, task.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.BasePath = basePath

	store := task.NewMemoryStore()
	srv := New(*cfg, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.SetStore(store)
	srv.SetBus(events.NewInMemoryBus())

	handler, err := srv.Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return ts, store
}

func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestHandler_RequiresStore(t *testing.T) {
	srv := New(*config.DefaultConfig(), "test", nil)
	if _, err := srv.Handler(); err == nil {
		t.Fatal("expected error without a store")
	}
}

func TestHandler_Idempotent(t *testing.T) {
	srv := New(*config.DefaultConfig(), "test", nil)
	srv.SetStore(task.NewMemoryStore())
	if _, err := srv.Handler(); err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if _, err := srv.Handler(); err != nil {
		t.Fatalf("second Handler: %v", err)
	}
}

func TestServer_AddThenList(t *testing.T) {
	ts, store := newTestServer(t, "/gui/todo")
	client := noRedirectClient()

	resp, err := client.PostForm(ts.URL+"/gui/todo/add", url.Values{"task": {"buy milk"}})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/gui/todo/" {
		t.Errorf("Location = %q", loc)
	}

	resp, err = client.Get(ts.URL + "/gui/todo/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "buy milk") {
		t.Error("index does not show added task")
	}

	got, _ := store.List()
	if len(got) != 1 || got[0] != "buy milk" {
		t.Errorf("store = %v", got)
	}
}

func TestServer_RequestID(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Error("expected generated X-Request-ID")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(headerRequestID); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestServer_SSEReceivesTaskEvents(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/events")
	if err != nil {
		t.Fatalf("connect sse: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(lines)
	}()

	waitFor := func(substr string) string {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed waiting for %q", substr)
				}
				if strings.Contains(line, substr) {
					return line
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", substr)
			}
		}
	}

	waitFor(`"connected"`)

	post, err := noRedirectClient().PostForm(ts.URL+"/add", url.Values{"task": {"walk dog"}})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	post.Body.Close()

	line := waitFor(sseEventType)
	if !strings.Contains(line, "walk dog") || !strings.Contains(line, `"added"`) {
		t.Errorf("event = %s", line)
	}
}

func TestBroadcastEvent_SkipsFullClients(t *testing.T) {
	srv := New(*config.DefaultConfig(), "test", nil)
	full := make(chan []byte)
	srv.sseClients[full] = struct{}{}

	done := make(chan struct{})
	go func() {
		srv.BroadcastEvent("x", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked on a full client")
	}
	if srv.clientCount() != 1 {
		t.Errorf("clientCount = %d, want 1", srv.clientCount())
	}
}

func TestStop_ReleasesSSEClients(t *testing.T) {
	srv := New(*config.DefaultConfig(), "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.SetStore(task.NewMemoryStore())
	srv.SetBus(events.NewInMemoryBus())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/events")
	if err != nil {
		t.Fatalf("connect sse: %v", err)
	}
	defer resp.Body.Close()
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil || !strings.Contains(line, "connected") {
		t.Fatalf("first line = %q, err = %v", line, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop with open SSE client: %v after %s", err, time.Since(start))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop took %s", elapsed)
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Serve returned %v, want ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestServe_AfterStop(t *testing.T) {
	srv := New(*config.DefaultConfig(), "test", nil)
	srv.SetStore(task.NewMemoryStore())
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Serve after Stop = %v, want ErrServerClosed", err)
	}
}
