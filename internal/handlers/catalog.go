package handlers

import (
	"net/http"
	"strconv"
)

// ListCodecs returns the codecs legal for an optional container.
// GET /api/codecs?extension=mp4
func (h *Handlers) ListCodecs(w http.ResponseWriter, r *http.Request) {
	ext := r.URL.Query().Get("extension")
	writeJSONResponse(w, h.filter.LegalCodecs(ext))
}

// ListExtensions returns the containers legal for an optional codec. With
// no codec it returns the union of every codec's containers.
// GET /api/extensions?codec=h264
func (h *Handlers) ListExtensions(w http.ResponseWriter, r *http.Request) {
	codec := r.URL.Query().Get("codec")
	writeJSONResponse(w, h.filter.LegalExtensions(codec))
}

// ListPixelFormats returns the common pixel formats, or all of them with
// all=true. A selected uncommon format is always included.
// GET /api/pixel-formats?all=false&selected=yuv444p
func (h *Handlers) ListPixelFormats(w http.ResponseWriter, r *http.Request) {
	showAll, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	selected := r.URL.Query().Get("selected")
	writeJSONResponse(w, h.filter.Table().VisiblePixelFormats(showAll, selected))
}
