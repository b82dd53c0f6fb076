package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/ffmpeg"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/filesystem"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/handlers"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/history"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/memory"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/middleware"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/startup"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout          = 30 * time.Second
	metricsCollectInterval   = time.Minute
	appReadHeaderTimeout     = 15 * time.Second
	appIdleTimeout           = 60 * time.Second
	metricsReadTimeout       = 5 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsReadHeaderTimeout = 5 * time.Second
)

// sessionStats is the part of the session registry the collector reads.
type sessionStats interface {
	Stats() wizard.Stats
}

// historyLen is the part of the history store the collector reads.
type historyLen interface {
	Len() int
}

// statsAdapter adapts the session registry and history store to
// metrics.StatsProvider.
type statsAdapter struct {
	sessions sessionStats
	history  historyLen
}

func (a *statsAdapter) GetStats() metrics.Stats {
	s := a.sessions.Stats()
	return metrics.Stats{
		ConvertSessions: s.Convert,
		TrimSessions:    s.Trim,
		PreviewsReady:   s.PreviewsReady,
		HistoryEntries:  a.history.Len(),
	}
}

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT before anything sizeable is allocated
	memConfig := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	// Initialize the decode backend
	startup.LogFFmpegInit(config.FFmpegPath, config.FFprobePath)
	tool := ffmpeg.New(config.FFmpegPath, config.FFprobePath)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	tool.SetMemoryGate(monitor)
	_, memLimit, _ := monitor.GetStats()
	startup.LogMemoryInit(memConfig.Source, memLimit)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"uploads": config.UploadDir,
	}))

	store, err := preview.NewTempStore(config.UploadDir, config.MaxUploadSize)
	if err != nil {
		startup.LogFatal("Failed to initialize upload store: %v", err)
	}

	filter := constraint.New(catalog.Default())
	hist := history.New(history.DefaultLimit)
	sessions := wizard.NewSessions(wizard.SessionConfig{
		Filter:      filter,
		Store:       store,
		Opener:      tool,
		IdleTimeout: config.SessionIdleTimeout,
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go sessions.Run(runCtx)
	startup.LogSessionsInit(config.SessionIdleTimeout)

	collector := metrics.NewCollector(&statsAdapter{sessions: sessions, history: hist}, metricsCollectInterval)
	collector.Start()

	h := handlers.New(sessions, filter, hist, tool, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := newAppServer(":"+config.Port, buildHandler(router, config), appReadHeaderTimeout)

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return listen(srv, "HTTP server") })
	if metricsSrv != nil {
		g.Go(func() error { return listen(metricsSrv, "metrics server") })
	}
	g.Go(func() error {
		select {
		case sig := <-sigChan:
			startup.LogShutdownInitiated(sig.String())
		case <-gctx.Done():
			startup.LogShutdownInitiated("server failure")
		}

		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")

		shutdown(srv, metricsSrv)

		startup.LogShutdownStep("Closing wizard sessions")
		stopRun()
		sessions.Close()
		startup.LogShutdownStepComplete("Wizard sessions closed")

		startup.LogShutdownStep("Stopping frame extraction")
		monitor.Stop()
		tool.Cleanup()
		startup.LogShutdownStepComplete("Frame extraction stopped")

		startup.LogShutdownComplete()
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
}

// listen runs srv until it is shut down. Any other exit is an error.
func listen(srv *http.Server, name string) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s on %s: %w", name, srv.Addr, err)
	}
	return nil
}

func shutdown(srv, metricsSrv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
}

// buildHandler wraps the router in the access log, compression and rate
// limiting middleware. Prometheus instrumentation is installed on the
// router itself so it can label by route template.
func buildHandler(router *mux.Router, config *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = router
	handler = middleware.RateLimit(middleware.DefaultRateLimitConfig(config.RateLimitPerMinute))(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	handler = middleware.Logger(loggingConfig)(handler)
	return handler
}

// newAppServer bounds only the request headers. Bodies carry trim uploads
// of up to MaxUploadSize, and responses stream source media, so neither
// has a whole-request deadline.
func newAppServer(addr string, h http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       appIdleTimeout,
	}
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", h.MetricsHandler())
	m.HandleFunc("/health", h.LivenessCheck)
	return &http.Server{
		Addr:              ":" + port,
		Handler:           m,
		ReadTimeout:       metricsReadTimeout,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		WriteTimeout:      metricsWriteTimeout,
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Catalog
	api.HandleFunc("/codecs", h.ListCodecs).Methods("GET")
	api.HandleFunc("/extensions", h.ListExtensions).Methods("GET")
	api.HandleFunc("/pixel-formats", h.ListPixelFormats).Methods("GET")

	// Convert wizard
	api.HandleFunc("/convert", h.CreateConvert).Methods("POST")
	api.HandleFunc("/convert/{id}", h.GetConvert).Methods("GET")
	api.HandleFunc("/convert/{id}", h.DeleteConvert).Methods("DELETE")
	api.HandleFunc("/convert/{id}/file", h.SetConvertFile).Methods("PUT")
	api.HandleFunc("/convert/{id}/codec", h.SetConvertCodec).Methods("PUT")
	api.HandleFunc("/convert/{id}/extension", h.SetConvertExtension).Methods("PUT")
	api.HandleFunc("/convert/{id}/pixel-format", h.SetConvertPixelFormat).Methods("PUT")
	api.HandleFunc("/convert/{id}/size", h.SetConvertSize).Methods("PUT")
	api.HandleFunc("/convert/{id}/next", h.NextConvertStep).Methods("POST")
	api.HandleFunc("/convert/{id}/back", h.PrevConvertStep).Methods("POST")
	api.HandleFunc("/convert/{id}/complete", h.CompleteConvert).Methods("POST")

	// Trim wizard
	api.HandleFunc("/trim", h.CreateTrim).Methods("POST")
	api.HandleFunc("/trim/{id}", h.GetTrim).Methods("GET")
	api.HandleFunc("/trim/{id}", h.DeleteTrim).Methods("DELETE")
	api.HandleFunc("/trim/{id}/file", h.UploadTrimFile).Methods("PUT")
	api.HandleFunc("/trim/{id}/media", h.GetTrimMedia).Methods("GET", "HEAD")
	api.HandleFunc("/trim/{id}/scrub", h.ScrubTrim).Methods("POST")
	api.HandleFunc("/trim/{id}/scrub/end", h.EndTrimScrub).Methods("POST")
	api.HandleFunc("/trim/{id}/preview", h.GetTrimPreview).Methods("GET")
	api.HandleFunc("/trim/{id}/times", h.SetTrimTimes).Methods("PUT")
	api.HandleFunc("/trim/{id}/timecode", h.GetTrimTimecode).Methods("GET")
	api.HandleFunc("/trim/{id}/complete", h.CompleteTrim).Methods("POST")

	// History
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/history/export", h.ExportHistory).Methods("GET")

	return r
}
