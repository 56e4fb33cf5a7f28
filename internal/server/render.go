package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/raphaelgruber/uniassist/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is the view model shared by all pages.
type pageData struct {
	Title       string
	Site        string
	Flashes     []Flash
	CSRFToken   string
	User        *models.User
	Admin       *models.Admin
	Form        map[string]string
	Errors      map[string]string
	Departments []models.Department
	Application *models.Application
	Applicants  []models.ApplicantRecord
	History     []models.Turn
}

// renderer holds one parsed template set per page, each combined with the layout.
type renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"department": func(code string) string {
		if d, ok := models.DepartmentByCode(code); ok {
			return d.Title
		}
		return code
	},
}

func newRenderer(pages ...string) (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// render executes page into a buffer first so a template error never leaves
// a half-written response.
func (rn *renderer) render(w http.ResponseWriter, logger *slog.Logger, status int, page string, data pageData) {
	t, ok := rn.pages[page]
	if !ok {
		logger.Error("unknown template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
