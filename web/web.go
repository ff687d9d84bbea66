// Package web holds the embedded templates for the browser page.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"timestamp": func(t time.Time) string {
			return t.Local().Format("02 Jan 2006 15:04")
		},
	}).ParseFS(files, "templates/*.html")
}
