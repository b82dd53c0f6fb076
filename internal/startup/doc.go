// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig]. When CONFIG_FILE names a TOML
// file it is decoded first (see [FileConfig]); environment variables then
// override individual keys:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - UPLOAD_DIR: Where trim uploads are stored while a session is open (default: /tmp/ffwizard)
//   - MAX_UPLOAD_SIZE: Largest accepted upload, e.g. 500MB or 2GiB (default: 2GB)
//   - SESSION_IDLE_TIMEOUT: Idle time after which a wizard session is closed (default: 30m)
//   - RATE_LIMIT_PER_MINUTE: Per-client API request budget, 0 disables (default: 600)
//   - FFMPEG_PATH, FFPROBE_PATH: Decoder binaries (default: looked up on PATH)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_FORMAT: console or json (default: console)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// The upload directory is created if missing and must be writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [LogFFmpegInit]: Decoder availability
//   - [LogSessionsInit]: Session registry settings
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
