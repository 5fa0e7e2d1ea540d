// Package server implements the tasklist HTTP server: HTML pages, JSON API
// and SSE change notifications.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GoCodeAlone/tasklist/config"
	"github.com/GoCodeAlone/tasklist/events"
	"github.com/GoCodeAlone/tasklist/server/api"
	"github.com/GoCodeAlone/tasklist/server/web"
	"github.com/GoCodeAlone/tasklist/task"
)

// sseEventType is the envelope type pushed to browsers for list changes.
const sseEventType = "task_event"

// Server is the tasklist HTTP server.
type Server struct {
	cfg    config.Config
	mux    *http.ServeMux
	logger *slog.Logger

	srvMu   sync.Mutex
	httpSrv *http.Server

	store   task.Store
	bus     events.Bus
	unsub   func()
	handler http.Handler

	// SSE clients
	sseMu      sync.RWMutex
	sseClients map[chan []byte]struct{}

	// done is closed by Stop so long-lived SSE handlers return before Shutdown
	// waits on them.
	done     chan struct{}
	stopOnce sync.Once

	version string
}

// New creates a new Server with the given config and logger.
func New(cfg config.Config, ver string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		mux:        http.NewServeMux(),
		logger:     logger,
		sseClients: make(map[chan []byte]struct{}),
		done:       make(chan struct{}),
		version:    ver,
	}
}

// SetStore attaches the task list store to the server.
func (s *Server) SetStore(store task.Store) {
	s.store = store
}

// SetBus attaches an event bus to the server. Events published on it are
// forwarded to SSE clients.
func (s *Server) SetBus(bus events.Bus) {
	s.bus = bus
}

// Handler registers routes and returns the root handler with middleware.
// Start calls it; tests use it directly.
func (s *Server) Handler() (http.Handler, error) {
	if s.handler != nil {
		return s.handler, nil
	}
	if s.store == nil {
		return nil, errors.New("server: no task store set")
	}
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	if s.bus != nil && s.unsub == nil {
		s.unsub = s.bus.Subscribe(func(_ context.Context, ev *events.Event) error {
			s.BroadcastEvent(sseEventType, ev)
			return nil
		})
	}
	s.handler = s.requestIDMiddleware(s.logMiddleware(s.mux))
	return s.handler, nil
}

// Start registers routes and begins listening on the configured address.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":8000"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve registers routes and serves HTTP on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	handler, err := s.Handler()
	if err != nil {
		ln.Close()
		return err
	}
	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.srvMu.Lock()
	select {
	case <-s.done:
		s.srvMu.Unlock()
		ln.Close()
		return http.ErrServerClosed
	default:
	}
	s.httpSrv = httpSrv
	s.srvMu.Unlock()

	s.logger.Info("server listening",
		slog.String("addr", ln.Addr().String()),
		slog.String("base_path", s.cfg.Server.BasePath),
	)
	return httpSrv.Serve(ln)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.srvMu.Lock()
	s.stopOnce.Do(func() { close(s.done) })
	httpSrv := s.httpSrv
	s.srvMu.Unlock()

	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	if httpSrv == nil {
		return nil
	}
	return httpSrv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() error {
	svc := task.NewService(s.store, s.bus, s.logger)

	pages, err := web.NewHandlers(svc, s.cfg.Title, s.cfg.Server.BasePath, s.logger)
	if err != nil {
		return fmt.Errorf("web handlers: %w", err)
	}
	pages.RegisterRoutes(s.mux)

	h := &api.Handlers{
		Tasks:   svc,
		Bus:     s.bus,
		Logger:  s.logger,
		Version: s.version,
	}
	h.RegisterRoutes(s.mux)

	s.mux.HandleFunc("GET /events", s.handleSSE)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return nil
}

// handleSSE implements Server-Sent Events for list change notifications.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := make(chan []byte, 64)
	s.sseMu.Lock()
	s.sseClients[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, ch)
		s.sseMu.Unlock()
	}()

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n") //nolint:errcheck
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case data := <-ch:
			for _, line := range strings.Split(string(data), "\n") {
				fmt.Fprintf(w, "data: %s\n", line) //nolint:errcheck
			}
			fmt.Fprintln(w) //nolint:errcheck
			flusher.Flush()
		}
	}
}

// BroadcastEvent sends a JSON-encoded event to all connected SSE clients.
func (s *Server) BroadcastEvent(eventType string, payload any) {
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		s.logger.Error("broadcast event marshal", slog.Any("err", err))
		return
	}

	s.sseMu.RLock()
	defer s.sseMu.RUnlock()
	for ch := range s.sseClients {
		select {
		case ch <- data:
		default:
			// Client channel full, skip
		}
	}
}

// clientCount reports connected SSE clients.
func (s *Server) clientCount() int {
	s.sseMu.RLock()
	defer s.sseMu.RUnlock()
	return len(s.sseClients)
}
