// Package web embeds the admin UI views and their stylesheet.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// assets embeds the HTML views and static files.
//
//go:embed templates/*.html static/*
var assets embed.FS

// Bundle exposes parsed views and static assets for serving.
type Bundle struct {
	Templates *template.Template // Parsed views, addressed by file name.
	StaticFS  http.FileSystem    // Static subdirectory filesystem.
}

// Load parses the embedded views.
func Load() (Bundle, error) {
	tmpl, errParse := template.New("").Funcs(Funcs()).ParseFS(assets, "templates/*.html")
	if errParse != nil {
		return Bundle{}, errParse
	}
	staticFS, errSub := fs.Sub(assets, "static")
	if errSub != nil {
		return Bundle{}, errSub
	}
	return Bundle{Templates: tmpl, StaticFS: http.FS(staticFS)}, nil
}

// Funcs returns helpers available to every view.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"when": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
		"date": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") },
		"orDash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "-"
			}
			return s
		},
	}
}
