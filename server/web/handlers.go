package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/GoCodeAlone/tasklist/task"
)

// formField is the form key carrying the task text.
const formField = "task"

// maxFormMemory bounds multipart parsing.
const maxFormMemory = 1 << 20

// Handlers serves the HTML list view and the add/delete form posts.
type Handlers struct {
	Tasks  *task.Service
	Logger *slog.Logger

	// Title is shown as the page heading.
	Title string

	// BasePath prefixes every route and the post-mutation redirect.
	BasePath string

	// EventsURL is the SSE endpoint the page listens on for live reloads.
	EventsURL string

	tmpl *template.Template
}

// NewHandlers parses the embedded templates and returns ready handlers.
func NewHandlers(svc *task.Service, title, basePath string, logger *slog.Logger) (*Handlers, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Tasks:     svc,
		Logger:    logger,
		Title:     title,
		BasePath:  basePath,
		EventsURL: "/events",
		tmpl:      tmpl,
	}, nil
}

// RegisterRoutes registers the page routes under BasePath on mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	base := h.BasePath
	mux.HandleFunc("GET "+base+"/{$}", h.index)
	mux.HandleFunc("POST "+base+"/add", h.add)
	mux.HandleFunc("POST "+base+"/delete", h.delete)
	mux.Handle("GET "+base+"/static/", http.StripPrefix(base+"/static/", http.FileServerFS(StaticFS())))
	if base != "" {
		mux.Handle("GET "+base, http.RedirectHandler(base+"/", http.StatusMovedPermanently))
	}
}

func (h *Handlers) listURL() string {
	return h.BasePath + "/"
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	todos, err := h.Tasks.List()
	if err != nil {
		h.Logger.Error("list tasks", slog.Any("err", err))
		http.Error(w, "could not load tasks", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"todos":  todos,
		"title":  h.Title,
		"base":   h.BasePath,
		"events": h.EventsURL,
	}
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		h.Logger.Error("render index", slog.Any("err", err))
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) add(w http.ResponseWriter, r *http.Request) {
	text, ok := h.taskField(w, r)
	if !ok {
		return
	}
	if err := h.Tasks.Add(r.Context(), text); err != nil {
		h.Logger.Error("add task", slog.Any("err", err))
		http.Error(w, "could not add task", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.listURL(), http.StatusSeeOther)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	text, ok := h.taskField(w, r)
	if !ok {
		return
	}
	if _, err := h.Tasks.Delete(r.Context(), text); err != nil {
		h.Logger.Error("delete task", slog.Any("err", err))
		http.Error(w, "could not delete task", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.listURL(), http.StatusSeeOther)
}

// taskField extracts the required task form field. On failure it writes the
// response and returns false. An empty value is accepted; only absence fails.
func (h *Handlers) taskField(w http.ResponseWriter, r *http.Request) (string, bool) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return "", false
	}
	values, ok := r.PostForm[formField]
	if !ok || len(values) == 0 {
		WriteMissingField(w, "body", formField)
		return "", false
	}
	return values[0], true
}

// validationDetail is one entry of a 422 response body.
type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// WriteMissingField writes a 422 response naming the absent field.
func WriteMissingField(w http.ResponseWriter, location, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(map[string][]validationDetail{
		"detail": {{Loc: []string{location, field}, Msg: "Field required", Type: "missing"}},
	})
}
