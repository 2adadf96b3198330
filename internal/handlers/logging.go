package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger is a chi LogFormatter that writes one slog record per request
type requestLogger struct{}

func (requestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{method: r.Method, path: r.URL.Path, remote: r.RemoteAddr}
}

type requestLogEntry struct {
	method string
	path   string
	remote string
}

func (e *requestLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	slog.Info("Request handled",
		"method", e.method,
		"path", e.path,
		"status", status,
		"bytes", bytes,
		"elapsed", elapsed,
		"remote", e.remote)
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	slog.Error("Request panicked", "method", e.method, "path", e.path, "panic", v, "stack", string(stack))
}
