package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/assets/*
var staticFS embed.FS

//go:embed templates/*.html
var templateFS embed.FS

// FS returns an http.FileSystem for the embedded dashboard assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static/assets")
	if err != nil {
		// Only possible if the embed pattern and the path drift apart.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
