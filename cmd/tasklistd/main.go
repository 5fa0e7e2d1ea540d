// Command tasklistd is the task list server daemon.
// It serves the HTML pages, the JSON API and the SSE change stream from the
// YAML config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCodeAlone/tasklist/config"
	"github.com/GoCodeAlone/tasklist/events"
	"github.com/GoCodeAlone/tasklist/internal/version"
	"github.com/GoCodeAlone/tasklist/server"
	"github.com/GoCodeAlone/tasklist/task"
)

var (
	configPath = flag.String("config", "tasklist.yaml", "path to config file")
	addr       = flag.String("addr", "", "listen address (overrides config)")
	basePath   = flag.String("base-path", "", "mount prefix for the HTML pages (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *basePath != "" {
		cfg.Server.BasePath = config.NormalizeBasePath(*basePath)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	logger.Info("starting tasklistd",
		"version", version.String(),
		"store", cfg.Store.Driver,
	)

	store, err := task.Open(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close() //nolint:errcheck
	}

	srv := server.New(*cfg, version.Version, logger)
	srv.SetStore(store)
	srv.SetBus(events.NewInMemoryBus())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	case <-sigCh:
	}

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("server stop error", "error", err)
	}
	fmt.Println("Shutdown complete")
}
