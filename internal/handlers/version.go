package handlers

import (
	"net/http"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/startup"
)

// VersionResponse is the build information plus the size of the codec
// catalog the server was built with.
type VersionResponse struct {
	startup.BuildInfo
	Codecs       int `json:"codecs"`
	PixelFormats int `json:"pixelFormats"`
}

// GetVersion returns the build information and catalog size
// GET /version
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	tbl := h.filter.Table()

	writeJSONResponse(w, VersionResponse{
		BuildInfo:    startup.GetBuildInfo(),
		Codecs:       len(tbl.Codecs()),
		PixelFormats: len(tbl.PixelFormats()),
	})
}
