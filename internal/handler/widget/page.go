package widget

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexHTML []byte

// HandlePage serves the browser widget.
func HandlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(indexHTML)
}
