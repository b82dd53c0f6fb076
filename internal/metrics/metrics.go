package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffwizard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffwizard_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// Wizard session metrics
var (
	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffwizard_sessions_active",
			Help: "Number of live wizard sessions by kind",
		},
		[]string{"kind"}, // "convert", "trim"
	)

	SessionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_sessions_created_total",
			Help: "Total number of wizard sessions created by kind",
		},
		[]string{"kind"},
	)

	SessionsExpiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_sessions_expired_total",
			Help: "Total number of wizard sessions closed for inactivity by kind",
		},
		[]string{"kind"},
	)

	CommandsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_commands_generated_total",
			Help: "Total number of ffmpeg commands generated by wizard kind",
		},
		[]string{"kind"},
	)

	HistoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_history_entries",
			Help: "Number of commands currently held in history",
		},
	)
)

// Preview pipeline metrics
var (
	PreviewsReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_previews_ready",
			Help: "Number of trim sessions with a decoded source ready to scrub",
		},
	)

	SourcesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_sources_live",
			Help: "Number of media sources that have not been released",
		},
	)

	SourceBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ffwizard_source_bytes",
			Help:    "Size of uploaded media sources in bytes",
			Buckets: prometheus.ExponentialBuckets(1<<20, 4, 8), // 1 MiB .. 16 GiB
		},
	)

	PreviewLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_preview_loads_total",
			Help: "Total number of preview source loads by status",
		},
		[]string{"status"}, // "success", "error", "superseded"
	)

	ScrubRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffwizard_scrub_requests_total",
			Help: "Total number of scrub requests accepted",
		},
	)

	ScrubResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_scrub_results_total",
			Help: "Total number of scrub completions by outcome",
		},
		[]string{"outcome"}, // "published", "stale", "error"
	)

	CaptureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ffwizard_capture_duration_seconds",
			Help:    "Time to crop, scale and encode a preview frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)
)

// Decoder metrics
var (
	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffwizard_probe_duration_seconds",
			Help:    "ffprobe duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	DecoderSeeksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_decoder_seeks_total",
			Help: "Total number of frame extractions by status",
		},
		[]string{"status"}, // "success", "error", "superseded"
	)

	DecoderSeekDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ffwizard_decoder_seek_duration_seconds",
			Help:    "Time for ffmpeg to extract a single frame",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	DecoderProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_decoder_processes_active",
			Help: "Number of ffmpeg frame extraction processes currently running",
		},
	)
)

// Memory metrics
var (
	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_go_mem_alloc_bytes",
			Help: "Current heap allocation in bytes",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_go_mem_sys_bytes",
			Help: "Total memory obtained from the OS in bytes",
		},
	)

	GoGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_go_goroutines",
			Help: "Number of goroutines at the last collection",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffwizard_memory_paused",
			Help: "1 while frame extraction is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffwizard_memory_gc_pauses_total",
			Help: "Total number of times frame extraction paused for memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_filesystem_retry_attempts_total",
			Help: "Total number of retried filesystem operations after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwizard_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffwizard_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffwizard_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
