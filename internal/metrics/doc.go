// Package metrics provides Prometheus instrumentation for the ffmpeg wizard.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "ffwizard_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, route template and status
//   - HTTPRequestDuration: Histogram of request duration by method and route
//   - HTTPRequestsInFlight: Gauge of requests being served
//   - HTTPRateLimitedTotal: Counter of requests rejected by the rate limiter
//
// ## Session Metrics
//
//   - SessionsActive: Gauge of live sessions by kind (convert/trim)
//   - SessionsCreatedTotal: Counter of sessions created by kind
//   - SessionsExpiredTotal: Counter of sessions closed for inactivity by kind
//   - CommandsGeneratedTotal: Counter of completed commands by kind
//   - HistoryEntries: Gauge of commands held in history
//
// ## Preview Metrics
//
//   - PreviewsReady: Gauge of trim sessions ready to scrub
//   - SourcesLive: Gauge of uploaded sources not yet released
//   - SourceBytes: Histogram of upload sizes
//   - PreviewLoadsTotal: Counter of loads by status (success/error/superseded)
//   - ScrubRequestsTotal: Counter of accepted scrubs
//   - ScrubResultsTotal: Counter of scrub outcomes (published/stale/error)
//   - CaptureDuration: Histogram of crop, scale and JPEG encode time
//
// ## ffmpeg Metrics
//
//   - ProbeDuration: Histogram of ffprobe runs by status
//   - DecoderSeeksTotal: Counter of frame extractions by status
//   - DecoderSeekDuration: Histogram of single-frame extraction time
//   - DecoderProcessesActive: Gauge of running extraction processes
//
// ## Runtime and Build
//
//   - GoMemAllocBytes, GoMemSysBytes, GoGoroutines: sampled by the Collector
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses: set by the memory monitor
//     that gates frame extraction
//
// ## Filesystem Metrics
//
//   - FilesystemStaleErrors, FilesystemRetryAttempts, FilesystemRetrySuccess,
//     FilesystemRetryFailures: stale file handle retries on upload files,
//     labeled by operation and volume
//   - FilesystemRetryDuration: Histogram of stat and open time including retries
//   - AppInfo: Gauge with version, commit and Go version labels
//
// # Collector
//
// [Collector] polls a [StatsProvider] on an interval and updates the
// session, preview and history gauges along with runtime memory:
//
//	collector := metrics.NewCollector(provider, 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// Call [InitializeMetrics] once at startup so every labeled series is
// exported from the first scrape.
//
// # Prometheus Queries
//
// Stale scrub ratio, a measure of how often the user outpaces the decoder:
//
//	rate(ffwizard_scrub_results_total{outcome="stale"}[5m]) /
//	rate(ffwizard_scrub_requests_total[5m])
//
// P95 frame extraction time:
//
//	histogram_quantile(0.95, sum(rate(ffwizard_decoder_seek_duration_seconds_bucket[5m])) by (le))
//
// Leaked sources (should return to zero once sessions expire):
//
//	ffwizard_sources_live
package metrics
