package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
)

// responseWriter records the status and size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingConfig holds configuration for the access log.
type LoggingConfig struct {
	SkipPaths []string
	// SkipSuffixes are path suffixes treated as static content.
	SkipSuffixes    []string
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig skips static assets and preview polling, which a
// scrubbing browser requests many times a second.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipSuffixes:    []string{".css", ".js", ".ico", ".png", ".svg", ".woff2", "/preview"},
		LogHealthChecks: true,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// sanitizeLogField removes control characters that could forge log lines
// or inject terminal escapes. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// Logger returns middleware that writes one structured access log event
// per request. Requests under /api/convert/{id} and /api/trim/{id} also
// carry the wizard flow and session id so a session can be followed
// through the log.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			logRequest(r, wrapped, time.Since(start))
		})
	}
}

func logRequest(r *http.Request, rw *responseWriter, duration time.Duration) {
	log := logging.WithComponent("http")

	event := log.Info()
	switch {
	case rw.statusCode >= http.StatusInternalServerError:
		event = log.Error()
	case rw.statusCode >= http.StatusBadRequest:
		event = log.Warn()
	}

	event = event.
		Str("client_ip", sanitizeLogField(getClientIP(r))).
		Str("method", sanitizeLogField(r.Method)).
		Str("path", sanitizeLogField(r.URL.Path)).
		Int("status", rw.statusCode).
		Int64("bytes", rw.bytesWritten).
		Int64("duration_ms", duration.Milliseconds())

	if q := r.URL.RawQuery; q != "" {
		event = event.Str("query", sanitizeLogField(q))
	}
	if enc := rw.Header().Get("Content-Encoding"); enc != "" {
		event = event.Str("encoding", enc)
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		event = event.Str("user_agent", sanitizeLogField(ua))
	}
	if flow, id, ok := wizardSession(r.URL.Path); ok {
		event = event.Str("flow", flow).Str("session", sanitizeLogField(id))
	}

	event.Msg("request")
}

// wizardSession extracts the flow and session id from a session route.
func wizardSession(path string) (flow, id string, ok bool) {
	rest, found := strings.CutPrefix(path, "/api/")
	if !found {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[1] == "" {
		return "", "", false
	}
	switch parts[0] {
	case "convert", "trim":
		return parts[0], parts[1], true
	}
	return "", "", false
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}

	if !config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}

	if !config.LogStaticFiles {
		lower := strings.ToLower(path)
		for _, suffix := range config.SkipSuffixes {
			if strings.HasSuffix(lower, suffix) {
				return true
			}
		}
	}

	return false
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
