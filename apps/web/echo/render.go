package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/perftracker/core/roster"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const baseTemplate = "templates/_base.gohtml"

var funcs = template.FuncMap{
	"score": func(f float64) string { return fmt.Sprintf("%g", f) },
	"avg": func(f null.Float64) string {
		if !f.Valid {
			return "-"
		}
		return fmt.Sprintf("%.2f", f.Float64)
	},
}

// pageData is what every page template receives.
type pageData struct {
	AppName string
	Title   string
	Flashes []Flash

	Students      []roster.View
	Student       roster.View
	Subjects      []string
	TopperResults map[string]string
	AvgResults    map[string]string
	Code          int
	Message       string
}

// renderer executes one template set per page, each made of the base layout and the page.
type renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() *renderer {
	base := template.Must(template.New("base").Funcs(funcs).ParseFS(templateFS, baseTemplate))

	files, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		panic(err)
	}
	r := &renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == baseTemplate {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".gohtml")
		r.pages[name] = template.Must(template.Must(base.Clone()).ParseFS(templateFS, file))
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
