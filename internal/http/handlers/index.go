package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexPage []byte

// Index serves the built-in upload page.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}
