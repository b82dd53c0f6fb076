package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/handlers"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/history"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/startup"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"
)

type mockSessions struct{ stats wizard.Stats }

func (m *mockSessions) Stats() wizard.Stats { return m.stats }

type mockHistory struct{ n int }

func (m *mockHistory) Len() int { return m.n }

type noTool struct{}

func (noTool) Available() error { return nil }

func newTestServer(t *testing.T, rateLimit int) (*handlers.Handlers, http.Handler) {
	t.Helper()

	store, err := preview.NewTempStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	filter := constraint.New(catalog.Default())
	sessions := wizard.NewSessions(wizard.SessionConfig{
		Filter: filter,
		Store:  store,
		Opener: preview.OpenerFunc(func(context.Context, *preview.Source) (preview.Decoder, error) {
			return nil, errors.New("no decoder in tests")
		}),
	})
	t.Cleanup(sessions.Close)

	config := &startup.Config{MaxUploadSize: 1 << 20, RateLimitPerMinute: rateLimit}
	h := handlers.New(sessions, filter, history.New(0), noTool{}, config)
	return h, buildHandler(setupRouter(h), config)
}

func TestStatsAdapter(t *testing.T) {
	adapter := &statsAdapter{
		sessions: &mockSessions{stats: wizard.Stats{Convert: 3, Trim: 2, PreviewsReady: 1}},
		history:  &mockHistory{n: 7},
	}

	var _ metrics.StatsProvider = adapter

	want := metrics.Stats{ConvertSessions: 3, TrimSessions: 2, PreviewsReady: 1, HistoryEntries: 7}
	if got := adapter.GetStats(); got != want {
		t.Errorf("GetStats() = %+v, want %+v", got, want)
	}
}

func TestStatsAdapterEmpty(t *testing.T) {
	adapter := &statsAdapter{sessions: &mockSessions{}, history: &mockHistory{}}
	if got := adapter.GetStats(); got != (metrics.Stats{}) {
		t.Errorf("GetStats() = %+v, want zero stats", got)
	}
}

func TestSetupRouter(t *testing.T) {
	_, handler := newTestServer(t, 0)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/livez", http.StatusOK},
		{http.MethodHead, "/livez", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/api/codecs?extension=mp4", http.StatusOK},
		{http.MethodGet, "/api/extensions?codec=h264", http.StatusOK},
		{http.MethodGet, "/api/pixel-formats", http.StatusOK},
		{http.MethodPost, "/api/convert", http.StatusCreated},
		{http.MethodPost, "/api/trim", http.StatusCreated},
		{http.MethodGet, "/api/convert/missing", http.StatusNotFound},
		{http.MethodPost, "/api/trim/missing/scrub/end", http.StatusNotFound},
		{http.MethodGet, "/api/history", http.StatusOK},
		{http.MethodGet, "/api/history/export", http.StatusOK},
		{http.MethodPost, "/api/codecs", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSessionRoutesCarryID(t *testing.T) {
	_, handler := newTestServer(t, 0)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/convert", http.NoBody))
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "/api/convert/") {
		t.Fatalf("Location = %q", loc)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, loc, http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", loc, w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, loc, http.NoBody))
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE %s = %d, want 204", loc, w.Code)
	}
}

func TestBuildHandlerRateLimit(t *testing.T) {
	_, handler := newTestServer(t, 2)

	var codes []int
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/codecs", http.NoBody)
		req.RemoteAddr = "203.0.113.9:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestMetricsServer(t *testing.T) {
	h, _ := newTestServer(t, 0)
	metrics.InitializeMetrics()

	srv := newMetricsServer("0", h)
	if srv.ReadTimeout <= 0 || srv.WriteTimeout <= 0 || srv.ReadHeaderTimeout <= 0 {
		t.Errorf("metrics server timeouts must be positive: %+v", srv)
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ffwizard_") {
		t.Error("/metrics does not expose ffwizard metrics")
	}

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("/health on metrics port = %d", w.Code)
	}
}

func TestAppServerBoundsOnlyHeaders(t *testing.T) {
	srv := newAppServer(":0", http.NotFoundHandler(), appReadHeaderTimeout)
	if srv.ReadHeaderTimeout != appReadHeaderTimeout {
		t.Errorf("ReadHeaderTimeout = %v, want %v", srv.ReadHeaderTimeout, appReadHeaderTimeout)
	}
	if srv.ReadTimeout != 0 || srv.WriteTimeout != 0 {
		t.Errorf("ReadTimeout = %v, WriteTimeout = %v, want no whole-request deadlines", srv.ReadTimeout, srv.WriteTimeout)
	}
}

func TestSlowTrimUploadOutlivesHeaderTimeout(t *testing.T) {
	_, handler := newTestServer(t, 0)
	const headerTimeout = 100 * time.Millisecond

	ts := httptest.NewUnstartedServer(nil)
	ts.Config = newAppServer("", handler, headerTimeout)
	ts.Start()
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/trim", "application/json", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	loc := resp.Header.Get("Location")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || loc == "" {
		t.Fatalf("create trim = %d, Location %q", resp.StatusCode, loc)
	}

	// Stream the file part well past the header timeout.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	contentType := mw.FormDataContentType()
	go func() {
		fw, err := mw.CreateFormFile("file", "clip.mov")
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		chunk := bytes.Repeat([]byte{'x'}, 1024)
		for range 8 {
			time.Sleep(headerTimeout / 2)
			if _, err := fw.Write(chunk); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequest(http.MethodPut, ts.URL+loc+"/file", pr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if elapsed := time.Since(start); elapsed < 3*headerTimeout {
		t.Fatalf("upload finished in %v, expected it to outlast the header timeout", elapsed)
	}
	// The body arrived in full and reached the decoder, which rejects it.
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 (body: %s)", resp.StatusCode, body)
	}
}
