package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware records a counter and latency histogram per request.
// Mutation routes carry the application id in the last path segment, so the
// path label is normalized to keep the series count bounded.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		ObserveHTTPRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(ww.status), time.Since(start))
	})
}

// normalizePath replaces a trailing numeric id with a placeholder, so
// /delete_job/42 and /delete_job/7 land in the same series.
func normalizePath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return path
	}
	if _, err := strconv.ParseInt(path[i+1:], 10, 64); err != nil {
		return path
	}
	return path[:i] + "/{id}"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
