package web

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates
type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// NewRenderer parses the embedded templates
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Render writes the named template to the response
func (r *Renderer) Render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		r.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}
