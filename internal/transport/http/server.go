package http

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

// NewServer создает и настраивает HTTP-сервер с роутингом и middleware.
// Регистрирует эндпоинты API, /metrics (если metrics не nil) и статические файлы.
func NewServer(log *slog.Logger, h *Handler, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/headlines", h.getHeadlines)
	mux.HandleFunc("/api/refresh", h.refresh)
	mux.HandleFunc("/api/health", h.healthCheck)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/api/headlines", http.StatusFound)
			return
		}
		http.NotFound(w, r)
	})
	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	handler = corsMiddleware()(handler)
	return handler
}
