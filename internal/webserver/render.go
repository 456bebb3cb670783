package webserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/feelwritelabs/feelwrite/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders the embedded page templates. Templates are named by
// file basename, e.g. "login.html".
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// page carries everything a template can show. Handlers fill in the
// fields their page needs and leave the rest zero.
type page struct {
	Title    string
	Username string

	// Error renders as a banner above the page content; Message is the
	// body of the standalone error page.
	Error   string
	Message string

	Entries []store.Entry
	Entry   *store.Entry
	Today   string

	// Form echoes submitted values back on validation failures.
	Form map[string]string
}
