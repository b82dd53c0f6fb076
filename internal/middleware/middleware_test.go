package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Error("Status code should not change after first WriteHeader")
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	n, err := rw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("Expected bytesWritten 5, got %d", rw.bytesWritten)
	}
	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected implicit status 200, got %d", rw.statusCode)
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{
			name:   "Logs API requests",
			path:   "/api/convert",
			config: DefaultLoggingConfig(),
			want:   false,
		},
		{
			name:   "Skips static files by default",
			path:   "/app.js",
			config: DefaultLoggingConfig(),
			want:   true,
		},
		{
			name:   "Skips preview polling by default",
			path:   "/api/trim/0b7e5c1a-8f0e-4a51-9a3e-3f9ad6f3f0a1/preview",
			config: DefaultLoggingConfig(),
			want:   true,
		},
		{
			name: "Logs static files when enabled",
			path: "/app.js",
			config: LoggingConfig{
				LogStaticFiles: true,
				SkipSuffixes: []string{".js"},
			},
			want: false,
		},
		{
			name:   "Skips health checks when disabled",
			path:   "/readyz",
			config: LoggingConfig{LogHealthChecks: false},
			want:   true,
		},
		{
			name:   "Skips configured prefixes",
			path:   "/api/history/export",
			config: LoggingConfig{SkipPaths: []string{"/api/history"}, LogHealthChecks: true},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.path, tt.config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})

	wrapped := Logger(DefaultLoggingConfig())(handler)
	req := httptest.NewRequest(http.MethodPost, "/api/convert", http.NoBody)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusCreated || w.Body.String() != "ok" {
		t.Errorf("got %d %q, want 201 ok", w.Code, w.Body.String())
	}
}

func TestLoggerWritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	logging.Configure(logging.Config{Level: "info", Format: logging.FormatJSON, Output: &buf})
	t.Cleanup(func() { logging.Configure(logging.Config{}) })

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"step incomplete"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/convert/abc-123/next?x=1", http.NoBody)
	req.RemoteAddr = "198.51.100.7:4000"
	Logger(DefaultLoggingConfig())(handler).ServeHTTP(httptest.NewRecorder(), req)

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("access log is not one JSON event: %v (%s)", err, buf.String())
	}

	want := map[string]any{
		"level":     "warn",
		"component": "http",
		"method":    "POST",
		"path":      "/api/convert/abc-123/next",
		"query":     "x=1",
		"status":    float64(409),
		"bytes":     float64(27),
		"client_ip": "198.51.100.7",
		"flow":      "convert",
		"session":   "abc-123",
		"message":   "request",
	}
	for k, v := range want {
		if event[k] != v {
			t.Errorf("%s = %v, want %v", k, event[k], v)
		}
	}
}

func TestWizardSession(t *testing.T) {
	tests := []struct {
		path     string
		flow, id string
		ok       bool
	}{
		{"/api/trim/s1/scrub", "trim", "s1", true},
		{"/api/convert/s2", "convert", "s2", true},
		{"/api/convert", "", "", false},
		{"/api/convert/", "", "", false},
		{"/api/history/export", "", "", false},
		{"/health", "", "", false},
	}

	for _, tt := range tests {
		flow, id, ok := wizardSession(tt.path)
		if flow != tt.flow || id != tt.id || ok != tt.ok {
			t.Errorf("wizardSession(%q) = %q, %q, %v", tt.path, flow, id, ok)
		}
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"line1\nline2", "line1 line2"},
		{"a\r\nb", "a  b"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"tab\tkept", "tab\tkept"},
	}

	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.9"}, remote: "1.1.1.1:80", want: "10.0.0.9"},
		{name: "remote addr", remote: "192.168.1.5:5123", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		responseBody      string
		contentType       string
		acceptEncoding    string
		rangeHeader       string
		expectCompression bool
	}{
		{
			name:              "Compresses large JSON",
			responseBody:      strings.Repeat(`{"codec":"h264"}`, 200),
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: true,
		},
		{
			name:              "Doesn't compress small responses",
			responseBody:      `{"ok":true}`,
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Doesn't compress preview JPEGs",
			responseBody:      strings.Repeat("jpeg", 500),
			contentType:       "image/jpeg",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Doesn't compress range requests",
			responseBody:      strings.Repeat("text", 500),
			contentType:       "text/plain",
			acceptEncoding:    "gzip",
			rangeHeader:       "bytes=0-",
			expectCompression: false,
		},
		{
			name:              "Respects client without gzip support",
			responseBody:      strings.Repeat("data", 500),
			contentType:       "text/plain",
			acceptEncoding:    "",
			expectCompression: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.responseBody))
			})

			wrapped := Compression(DefaultCompressionConfig())(handler)
			req := httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			compressed := w.Header().Get("Content-Encoding") == "gzip"
			if compressed != tt.expectCompression {
				t.Fatalf("compressed = %v, want %v", compressed, tt.expectCompression)
			}

			body := w.Body.Bytes()
			if compressed {
				gr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip.NewReader() error = %v", err)
				}
				body, err = io.ReadAll(gr)
				if err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
			}
			if string(body) != tt.responseBody {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.responseBody))
			}
		})
	}
}

func TestCompressionPreservesStatusWithoutBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	wrapped := Compression(DefaultCompressionConfig())(handler)
	req := httptest.NewRequest(http.MethodGet, "/api/trim/x/preview", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "" {
		t.Error("bodyless response was marked compressed")
	}
}

func TestCompressionWithMultipleWrites(t *testing.T) {
	chunk := strings.Repeat("x", 300)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		for i := 0; i < 10; i++ {
			_, _ = w.Write([]byte(chunk))
		}
	})

	wrapped := Compression(DefaultCompressionConfig())(handler)
	req := httptest.NewRequest(http.MethodGet, "/api/history/export", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	gr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	body, _ := io.ReadAll(gr)
	if len(body) != len(chunk)*10 {
		t.Errorf("decompressed %d bytes, want %d", len(body), len(chunk)*10)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/codecs", "/api/codecs"},
		{"/api/trim/0b7e5c1a-8f0e-4a51-9a3e-3f9ad6f3f0a1/scrub", "/api/trim/{id}/scrub"},
		{"/api/convert/0b7e5c1a-8f0e-4a51-9a3e-3f9ad6f3f0a1", "/api/convert/{id}"},
		{"/api/convert/not-a-uuid", "/api/convert/not-a-uuid"},
		{"/", "/"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/trim/{id}/timecode", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/trim/{id}/timecode", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/api/trim/"+id+"/timecode", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests recorded under template = %v, want 3", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Metrics(DefaultMetricsConfig())(handler)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200")
	before := testutil.ToFloat64(counter)

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	if got := testutil.ToFloat64(counter) - before; got != 0 {
		t.Errorf("health check recorded %v times, want 0", got)
	}
}

func TestRateLimitEnforcesLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(RateLimitConfig{RequestLimit: 3, WindowSize: time.Minute})(handler)

	before := testutil.ToFloat64(metrics.HTTPRateLimitedTotal)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	limited.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request: status %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] == "" {
		t.Errorf("body = %v (%v), want JSON error", body, err)
	}
	if got := testutil.ToFloat64(metrics.HTTPRateLimitedTotal) - before; got != 1 {
		t.Errorf("rate limited counter delta = %v, want 1", got)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody)
	other.RemoteAddr = "192.168.1.2:12345"
	w = httptest.NewRecorder()
	limited.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("other client status %d, want 200", w.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(DefaultRateLimitConfig(0))(handler)

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d limited with limiting disabled", i+1)
		}
	}
}

func BenchmarkCompressionMiddleware(b *testing.B) {
	body := []byte(strings.Repeat(`{"codec":"h264"}`, 200))
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	wrapped := Compression(DefaultCompressionConfig())(handler)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody)
		req.Header.Set("Accept-Encoding", "gzip")
		wrapped.ServeHTTP(httptest.NewRecorder(), req)
	}
}
