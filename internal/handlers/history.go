package handlers

import (
	"net/http"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
)

// GetHistory returns the recent commands, newest first.
// GET /api/history
func (h *Handlers) GetHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, h.history.List())
}

// ExportHistory downloads the recent commands as text, one per line.
// Write failures are logged; the history itself is never affected.
// GET /api/history/export
func (h *Handlers) ExportHistory(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ffmpeg-commands.txt"`)
	w.Header().Set("Cache-Control", "no-store")
	if err := h.history.Export(w); err != nil {
		logging.Warn("History export failed: %v", err)
	}
}
