package views

import (
	"embed"
	"html/template"

	"github.com/gin-contrib/multitemplate"
)

//go:embed templates/*.html
var files embed.FS

// Page names accepted by c.HTML.
const (
	Index  = "index"
	Edit   = "edit"
	Add    = "add"
	Select = "select"
	Error  = "error"
)

var pages = []string{Index, Edit, Add, Select, Error}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()
	for _, page := range pages {
		tmpl, err := template.New(page).Parse(`{{template "layout" .}}`)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.ParseFS(files, "templates/layout.html", "templates/"+page+".html"); err != nil {
			return nil, err
		}
		r.Add(page, tmpl)
	}
	return r, nil
}
