// Package web renders the dashboard pages from embedded templates.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every page template receives
type Page struct {
	Title string
	// Active names the navigation entry to highlight
	Active string
	User   *models.Identity
	Notice string
	Error  string
	// Content is the page specific view model
	Content interface{}
}

type Renderer struct {
	pages  map[string]*template.Template
	logger interfaces.Logger
}

// New parses the layout and the shared partials (files starting with "_")
// together with each page template
func New(logger interfaces.Logger) (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/_*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" || strings.HasPrefix(name, "_") {
			continue
		}
		tpl, err := template.Must(layout.Clone()).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[name] = tpl
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page name with the given status. The page is executed into a
// buffer first so a template failure never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tpl, ok := r.pages[name]
	if !ok {
		r.logger.Error("Unknown page template", fmt.Errorf("template %q not found", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		r.logger.Error("Failed to render page", err, "page", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Warn("Failed to write page", "page", name, "error", err.Error())
	}
}

var funcs = template.FuncMap{
	"prettyJSON":  prettyJSON,
	"prettyText":  prettyText,
	"methodClass": methodClass,
	"anchor":      Anchor,
	"dict":        dict,
	"add":         func(a, b int) int { return a + b },
	"sub":         func(a, b int) int { return a - b },
	"rangeStart": func(p models.Pagination) int {
		if p.Total == 0 {
			return 0
		}
		return (p.Page-1)*p.Limit + 1
	},
	"rangeEnd": func(p models.Pagination) int {
		end := p.Page * p.Limit
		if end > p.Total {
			end = p.Total
		}
		return end
	},
}

// dict builds a map from alternating keys and values for partial templates
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict needs an even number of arguments")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func prettyJSON(v interface{}) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// prettyText indents s when it is JSON and returns it unchanged otherwise
func prettyText(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

func methodClass(method string) string {
	switch method {
	case http.MethodGet:
		return "m-get"
	case http.MethodPost:
		return "m-post"
	case http.MethodPut:
		return "m-put"
	case http.MethodDelete:
		return "m-delete"
	default:
		return "m-other"
	}
}

// Anchor turns an endpoint key into the fragment id of its explorer card
func Anchor(key string) string {
	r := strings.NewReplacer(":", "-", "/", "-", "{", "", "}", "")
	return "ep" + strings.ToLower(r.Replace(key))
}
