// Command tasklist is the task list CLI client.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultServer = "http://localhost:8000"

func main() {
	serverURL := flag.String("server", envOr("TASKLIST_SERVER", defaultServer), "tasklist server URL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cli := &Client{
		BaseURL:    strings.TrimRight(*serverURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Out:        os.Stdout,
	}

	if err := cli.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `tasklist — task list CLI

Usage:
  tasklist [flags] <command> [args]

Flags:
  --server <url>    server URL (default: http://localhost:8000, or $TASKLIST_SERVER)

Commands:
  version           print version
  status            show server status
  list              list tasks
  add <text>        append a task
  rm <text>         delete the first matching task
  events [limit]    show recent list changes
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
