package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/pelletier/go-toml/v2"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Defaults for every configuration key.
const (
	DefaultPort               = "8080"
	DefaultMetricsPort        = "9090"
	DefaultUploadDir          = "/tmp/ffwizard"
	DefaultMaxUploadSize      = "2GB"
	DefaultSessionIdleTimeout = "30m"
	DefaultRateLimitPerMinute = 600
)

// Config holds all application configuration
type Config struct {
	Port               string
	MetricsPort        string
	MetricsEnabled     bool
	UploadDir          string
	MaxUploadSize      int64
	SessionIdleTimeout time.Duration
	LogStaticFiles     bool
	LogHealthChecks    bool
	RateLimitPerMinute int
	FFmpegPath         string
	FFprobePath        string

	// ConfigFile is the TOML file the values were layered over, if any.
	ConfigFile string
}

// FileConfig is the optional TOML configuration file. Environment variables
// take precedence over every key.
type FileConfig struct {
	Port               string `toml:"port"`
	MetricsPort        string `toml:"metrics_port"`
	MetricsEnabled     *bool  `toml:"metrics_enabled"`
	UploadDir          string `toml:"upload_dir"`
	MaxUploadSize      string `toml:"max_upload_size"`
	SessionIdleTimeout string `toml:"session_idle_timeout"`
	LogStaticFiles     *bool  `toml:"log_static_files"`
	LogHealthChecks    *bool  `toml:"log_health_checks"`
	RateLimitPerMinute *int   `toml:"rate_limit_per_minute"`
	FFmpegPath         string `toml:"ffmpeg_path"`
	FFprobePath        string `toml:"ffprobe_path"`
}

// ReadConfigFile decodes the TOML file at path. Unknown keys are rejected.
func ReadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig

	f, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := toml.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fc, fmt.Errorf("parse config: %s", strict.String())
		}
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// LoadConfig loads and validates configuration from environment variables,
// layered over the TOML file named by CONFIG_FILE when set.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	var fc FileConfig
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		var err error
		fc, err = ReadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		logging.Info("  CONFIG_FILE:           %s", configFile)
	}

	config, err := resolveConfig(fc)
	if err != nil {
		return nil, err
	}
	config.ConfigFile = configFile

	logging.Info("  PORT:                  %s", config.Port)
	logging.Info("  METRICS_PORT:          %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:       %v", config.MetricsEnabled)
	logging.Info("  UPLOAD_DIR:            %s", config.UploadDir)
	logging.Info("  MAX_UPLOAD_SIZE:       %s", humanize.Bytes(uint64(config.MaxUploadSize)))
	logging.Info("  SESSION_IDLE_TIMEOUT:  %s", config.SessionIdleTimeout)
	logging.Info("  RATE_LIMIT_PER_MINUTE: %d", config.RateLimitPerMinute)
	logging.Info("  FFMPEG_PATH:           %s", config.FFmpegPath)
	logging.Info("  FFPROBE_PATH:          %s", config.FFprobePath)
	logging.Info("  LOG_STATIC_FILES:      %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:     %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	config.UploadDir, err = filepath.Abs(config.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}
	logging.Info("  Upload directory (absolute): %s", config.UploadDir)

	if err := ensureDirectory(config.UploadDir, "upload"); err != nil {
		return nil, fmt.Errorf("upload directory error: %w", err)
	}

	logging.Debug("  Testing upload directory write access...")
	if err := testWriteAccess(config.UploadDir); err != nil {
		return nil, fmt.Errorf("upload directory is not writable (required for previews): %w", err)
	}
	logging.Info("  [OK] Upload directory is writable")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Convert wizard: ENABLED")
	logging.Info("    Trim previews:  %s", enabledString(checkFFmpeg(config.FFmpegPath, config.FFprobePath) == nil))
	logging.Info("    Rate limiting:  %s", enabledString(config.RateLimitPerMinute > 0))
	logging.Info("    Metrics:        %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// resolveConfig applies environment overrides and defaults over fc.
func resolveConfig(fc FileConfig) (*Config, error) {
	maxUploadStr := getEnv("MAX_UPLOAD_SIZE", orDefault(fc.MaxUploadSize, DefaultMaxUploadSize))
	maxUpload, err := humanize.ParseBytes(maxUploadStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE %q: %w", maxUploadStr, err)
	}

	idleStr := getEnv("SESSION_IDLE_TIMEOUT", orDefault(fc.SessionIdleTimeout, DefaultSessionIdleTimeout))
	idle, err := time.ParseDuration(idleStr)
	if err != nil || idle <= 0 {
		logging.Warn("  Invalid SESSION_IDLE_TIMEOUT %q, using default: %s", idleStr, DefaultSessionIdleTimeout)
		idle = 30 * time.Minute
	}

	rateLimit := getEnvInt("RATE_LIMIT_PER_MINUTE", derefOr(fc.RateLimitPerMinute, DefaultRateLimitPerMinute))
	if rateLimit < 0 {
		rateLimit = 0
	}

	return &Config{
		Port:               getEnv("PORT", orDefault(fc.Port, DefaultPort)),
		MetricsPort:        getEnv("METRICS_PORT", orDefault(fc.MetricsPort, DefaultMetricsPort)),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", derefOr(fc.MetricsEnabled, true)),
		UploadDir:          getEnv("UPLOAD_DIR", orDefault(fc.UploadDir, DefaultUploadDir)),
		MaxUploadSize:      int64(maxUpload),
		SessionIdleTimeout: idle,
		LogStaticFiles:     getEnvBool("LOG_STATIC_FILES", derefOr(fc.LogStaticFiles, false)),
		LogHealthChecks:    getEnvBool("LOG_HEALTH_CHECKS", derefOr(fc.LogHealthChecks, true)),
		RateLimitPerMinute: rateLimit,
		FFmpegPath:         getEnv("FFMPEG_PATH", orDefault(fc.FFmpegPath, "ffmpeg")),
		FFprobePath:        getEnv("FFPROBE_PATH", orDefault(fc.FFprobePath, "ffprobe")),
	}, nil
}

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func derefOr[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogFFmpegInit logs the decode backend check. Trim sessions still open
// without ffmpeg; their loads fail and the session degrades to no preview.
func LogFFmpegInit(ffmpegPath, ffprobePath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PREVIEW DECODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if err := checkFFmpeg(ffmpegPath, ffprobePath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Trim previews will not be available")
		return
	}
	logging.Info("  [OK] FFmpeg and FFprobe are available")
}

// LogMemoryInit logs the Go memory limit and where it came from. A zero
// limit leaves frame extraction ungated.
func LogMemoryInit(source string, goMemLimit int64) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY MANAGEMENT")
	logging.Info("------------------------------------------------------------")
	if goMemLimit <= 0 {
		logging.Info("  Memory limit:    none (source: %s)", source)
		logging.Info("  Frame extraction is not gated on memory usage")
		return
	}
	logging.Info("  Memory limit:    %s (source: %s)", humanize.IBytes(uint64(goMemLimit)), source)
	logging.Info("  [OK] Memory monitor started")
}

// LogSessionsInit logs session registry initialization
func LogSessionsInit(idleTimeout time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SESSION REGISTRY INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Idle timeout: %v", idleTimeout)
	logging.Info("  [OK] Session expiry started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Subrouters and prefix handlers have no methods
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		for _, group := range GroupRoutes(routes) {
			if group.Name != "" {
				logging.Debug("  [%s]", group.Name)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range group.Routes {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// RouteGroup is a set of routes sharing a path prefix.
type RouteGroup struct {
	Name   string
	Routes []RouteInfo
}

// GroupRoutes buckets routes by prefix, sorted by group name.
func GroupRoutes(routes []RouteInfo) []RouteGroup {
	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]RouteGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, RouteGroup{Name: k, Routes: groups[k]})
	}
	return out
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   __  __               _                  _
  / _|/ _|_      _(_)______ _ _ __ __| |
 | |_| |_\ \ /\ / / |_  / _' | '__/ _' |
 |  _|  _|\ V  V /| |/ / (_| | | | (_| |
 |_| |_|   \_/\_/ |_/___\__,_|_|  \__,_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg(ffmpegPath, ffprobePath string) error {
	for _, bin := range []string{ffmpegPath, ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found in PATH", bin)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, ffmpegPath, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
