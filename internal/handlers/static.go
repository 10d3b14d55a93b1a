package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"wastebin-backend/pkg/utils"
)

// SPA serves files from dir and falls back to index.html for any other GET
// so client-side routes resolve. Unknown /api paths get a JSON 404.
func SPA(dir string, resp utils.Responder) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			utils.Error(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			utils.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		f, err := os.Open(index)
		if err != nil {
			resp.Log.Error().Err(err).Str("index", index).Msg("❌ error serving index.html")
			http.Error(w, "Error loading page", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			http.Error(w, "Error loading page", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, "index.html", info.ModTime(), f)
	}
}
