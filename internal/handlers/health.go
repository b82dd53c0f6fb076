package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// FFmpegError is set when ffmpeg or ffprobe cannot be run; previews
	// are unavailable but commands can still be built.
	FFmpegError string `json:"ffmpegError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Session summary
	ConvertSessions int `json:"convertSessions"`
	TrimSessions    int `json:"trimSessions"`
	PreviewsReady   int `json:"previewsReady"`
	HistoryEntries  int `json:"historyEntries"`
}

// HealthCheck returns the health status of the service. A missing ffmpeg
// degrades the service but does not fail the check.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.sessions.Stats()

	response := HealthResponse{
		Status:          statusHealthy,
		Ready:           true,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
		ConvertSessions: stats.Convert,
		TrimSessions:    stats.Trim,
		PreviewsReady:   stats.PreviewsReady,
		HistoryEntries:  h.history.Len(),
	}

	if err := h.tool.Available(); err != nil {
		response.Status = statusDegraded
		response.FFmpegError = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when ffmpeg and ffprobe can be run
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.tool.Available(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSONStatus(w, "ready")
}
