package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFS embed.FS

// GetPagesFS returns the embedded pages filesystem
func GetPagesFS() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}
