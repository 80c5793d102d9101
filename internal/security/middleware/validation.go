package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// RequireJSON rejects a request whose body is not declared as JSON. Applied
// to the status-update endpoint, which is called from page scripts rather
// than form posts.
func RequireJSON(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType := r.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
				)
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
