// Package web serves the server-rendered task list pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// parseTemplates loads every page template with the shared func map.
func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"title": titleCase,
	}
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// titleCase builds a Caser per call; Casers are stateful and not safe to share
// between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// StaticFS returns the embedded static assets rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}
