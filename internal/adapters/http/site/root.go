// Package site renders the dashboard page and serves its assets.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Error constants
var (
	ErrTemplate = errors.New("dashboard template failed")
)

// DefaultTitle is used when no title is configured.
const DefaultTitle = "Space Dashboard"

// pageData is the template model for the dashboard.
type pageData struct {
	Title    string
	DataPath string
}

// RootHandler renders the dashboard at /.
type RootHandler struct {
	tmpl *template.Template
	data pageData
}

// NewRootHandler parses the embedded dashboard template.
func NewRootHandler(title string) (*RootHandler, error) {
	if title == "" {
		title = DefaultTitle
	}
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	return &RootHandler{
		tmpl: tmpl,
		data: pageData{Title: title, DataPath: "/api/proxy/data"},
	}, nil
}

// HandleRoot handles GET / requests. The page loads its records from the
// proxy route in the browser, so rendering needs no upstream call.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.data); err != nil {
		http.Error(w, ErrTemplate.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Register attaches the dashboard page and its static assets to r.
func Register(_ context.Context, r chi.Router, title string) error {
	if r == nil {
		panic("router is nil")
	}

	root, err := NewRootHandler(title)
	if err != nil {
		return err
	}
	r.Get("/", root.HandleRoot)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(FS())))
	return nil
}
