// Package api defines the JSON API handlers for the tasklist server.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoCodeAlone/tasklist/events"
	"github.com/GoCodeAlone/tasklist/server/web"
	"github.com/GoCodeAlone/tasklist/task"
)

// Handlers bundles all JSON API handler dependencies.
type Handlers struct {
	Tasks   *task.Service
	Bus     events.Bus
	Logger  *slog.Logger
	Version string
}

// TaskRequest is the body accepted by POST and DELETE /api/tasks.
// Task is a pointer so an absent field can be told apart from "".
type TaskRequest struct {
	Task *string `json:"task"`
}

// TaskResponse echoes the task acted on.
type TaskResponse struct {
	Task    string `json:"task"`
	Removed *bool  `json:"removed,omitempty"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Tasks   int    `json:"tasks"`
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.addTask)
	mux.HandleFunc("DELETE /api/tasks", h.deleteTask)

	mux.HandleFunc("GET /api/events", h.listEvents)

	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/version", h.version)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeTask reads a TaskRequest. On failure it writes the response and
// returns false.
func decodeTask(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return "", false
	}
	if req.Task == nil {
		web.WriteMissingField(w, "body", "task")
		return "", false
	}
	return *req.Task, true
}

// --- Task handlers ---

func (h *Handlers) listTasks(w http.ResponseWriter, _ *http.Request) {
	tasks, err := h.Tasks.List()
	if err != nil {
		h.Logger.Error("list tasks", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []string{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) addTask(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeTask(w, r)
	if !ok {
		return
	}
	if err := h.Tasks.Add(r.Context(), text); err != nil {
		h.Logger.Error("add task", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, TaskResponse{Task: text})
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeTask(w, r)
	if !ok {
		return
	}
	removed, err := h.Tasks.Delete(r.Context(), text)
	if err != nil {
		h.Logger.Error("delete task", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TaskResponse{Task: text, Removed: &removed})
}

// --- Event handlers ---

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	var evs []*events.Event
	if h.Bus != nil {
		var err error
		evs, err = h.Bus.History(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if evs == nil {
		evs = []*events.Event{}
	}
	writeJSON(w, http.StatusOK, evs)
}

// --- Status / version ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	tasks, err := h.Tasks.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Version: h.Version,
		Tasks:   len(tasks),
	})
}

func (h *Handlers) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": h.Version,
	})
}
