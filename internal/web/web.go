// Package web holds the embedded HTML templates and static assets of the
// front end.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/noah-isme/cbdms-web/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"periodLabels": func() []string { return models.PeriodLabels[:] },
		"slotLabel": func(view models.EditorView, value string) string {
			return view.SlotLabel(value)
		},
		"emptySlot": func() string { return models.EmptySlot },
		"hasOption": func(options []models.Paper, value string) bool {
			for _, p := range options {
				if p.Name == value {
					return true
				}
			}
			return false
		},
	}
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded assets.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
