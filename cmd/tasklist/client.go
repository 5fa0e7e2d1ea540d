package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoCodeAlone/tasklist/internal/version"
)

// Client holds HTTP client state for CLI commands.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Out        io.Writer
}

// Run dispatches one CLI command.
func (c *Client) Run(args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		return c.cmdVersion()
	case "status":
		return c.cmdStatus()
	case "list", "ls":
		return c.cmdList()
	case "add":
		return c.cmdAdd(rest)
	case "rm", "delete":
		return c.cmdRemove(rest)
	case "events":
		return c.cmdEvents(rest)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// do sends a JSON request and decodes the response into v (may be nil).
func (c *Client) do(method, path string, body any, v any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

// --- version ---

func (c *Client) cmdVersion() error {
	fmt.Fprintf(c.Out, "tasklist %s\n", version.String())
	return nil
}

// --- status ---

func (c *Client) cmdStatus() error {
	var result struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Tasks   int    `json:"tasks"`
	}
	if err := c.do(http.MethodGet, "/api/status", nil, &result); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "status:  %s\n", result.Status)
	fmt.Fprintf(c.Out, "version: %s\n", result.Version)
	fmt.Fprintf(c.Out, "tasks:   %d\n", result.Tasks)
	return nil
}

// --- tasks ---

func (c *Client) cmdList() error {
	var tasks []string
	if err := c.do(http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(c.Out, "no tasks")
		return nil
	}
	for i, t := range tasks {
		fmt.Fprintf(c.Out, "%3d  %s\n", i+1, t)
	}
	return nil
}

func (c *Client) cmdAdd(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tasklist add <text>")
	}
	text := strings.Join(args, " ")
	if err := c.do(http.MethodPost, "/api/tasks", map[string]string{"task": text}, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "added %q\n", text)
	return nil
}

func (c *Client) cmdRemove(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tasklist rm <text>")
	}
	text := strings.Join(args, " ")
	var resp struct {
		Removed bool `json:"removed"`
	}
	if err := c.do(http.MethodDelete, "/api/tasks", map[string]string{"task": text}, &resp); err != nil {
		return err
	}
	if resp.Removed {
		fmt.Fprintf(c.Out, "removed %q\n", text)
	} else {
		fmt.Fprintf(c.Out, "%q not in list\n", text)
	}
	return nil
}

// --- events ---

func (c *Client) cmdEvents(args []string) error {
	path := "/api/events"
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		path += "?limit=" + strconv.Itoa(n)
	}
	var evs []struct {
		Type      string `json:"type"`
		Task      string `json:"task"`
		Timestamp string `json:"timestamp"`
	}
	if err := c.do(http.MethodGet, path, nil, &evs); err != nil {
		return err
	}
	if len(evs) == 0 {
		fmt.Fprintln(c.Out, "no events")
		return nil
	}
	fmt.Fprintf(c.Out, "%-30s %-8s %s\n", "TIME", "TYPE", "TASK")
	fmt.Fprintln(c.Out, strings.Repeat("-", 60))
	for _, e := range evs {
		fmt.Fprintf(c.Out, "%-30s %-8s %s\n", e.Timestamp, e.Type, truncate(e.Task, 40))
	}
	return nil
}

// --- helpers ---

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
