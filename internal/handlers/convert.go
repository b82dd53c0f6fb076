package handlers

import (
	"net/http"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/command"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"

	"github.com/gorilla/mux"
)

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	ID    string      `json:"id"`
	State interface{} `json:"state"`
}

// CompleteResponse is returned when a wizard finishes.
type CompleteResponse struct {
	Command string      `json:"command"`
	State   interface{} `json:"state"`
}

// FileRequest names a picked file. Path and RelativePath are preferred over
// Name when the picker exposes them.
type FileRequest struct {
	Path         string `json:"path"`
	RelativePath string `json:"relativePath"`
	Name         string `json:"name"`
}

func (f FileRequest) displayName() string {
	return command.DisplayName(f.Path, f.RelativePath, f.Name)
}

type codecRequest struct {
	Codec string `json:"codec"`
}

type extensionRequest struct {
	Extension string `json:"extension"`
}

type pixelFormatRequest struct {
	PixelFormat *string `json:"pixelFormat"`
	ShowAll     bool    `json:"showAll"`
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (h *Handlers) convertSession(w http.ResponseWriter, r *http.Request) (*wizard.ConvertWizard, bool) {
	cw, err := h.sessions.Convert(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return cw, true
}

// CreateConvert starts a convert session.
// POST /api/convert
func (h *Handlers) CreateConvert(w http.ResponseWriter, _ *http.Request) {
	id, cw := h.sessions.NewConvert()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/convert/"+id)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, SessionResponse{ID: id, State: cw.State()})
}

// GetConvert returns a convert session's state.
// GET /api/convert/{id}
func (h *Handlers) GetConvert(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, cw.State())
}

// DeleteConvert dismisses a convert session.
// DELETE /api/convert/{id}
func (h *Handlers) DeleteConvert(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteConvert(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetConvertFile records the picked input file.
// PUT /api/convert/{id}/file
func (h *Handlers) SetConvertFile(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	var req FileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cw.SelectFile(req.displayName()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, cw.State())
}

// SetConvertCodec selects a codec; an empty codec clears it.
// PUT /api/convert/{id}/codec
func (h *Handlers) SetConvertCodec(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	var req codecRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cw.SelectCodec(req.Codec); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, cw.State())
}

// SetConvertExtension selects an output container; empty clears it.
// PUT /api/convert/{id}/extension
func (h *Handlers) SetConvertExtension(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	var req extensionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cw.SelectExtension(req.Extension); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, cw.State())
}

// SetConvertPixelFormat selects a pixel format and optionally expands the
// picker to the full list.
// PUT /api/convert/{id}/pixel-format
func (h *Handlers) SetConvertPixelFormat(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	var req pixelFormatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ShowAll {
		cw.ShowAllPixelFormats()
	}
	if req.PixelFormat != nil {
		if err := cw.SelectPixelFormat(*req.PixelFormat); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSONResponse(w, cw.State())
}

// SetConvertSize sets the output dimensions; zero leaves one unset.
// PUT /api/convert/{id}/size
func (h *Handlers) SetConvertSize(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	var req sizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cw.SetDimensions(req.Width, req.Height); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, cw.State())
}

// NextConvertStep advances the wizard. 409 when the step is incomplete.
// POST /api/convert/{id}/next
func (h *Handlers) NextConvertStep(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	if err := cw.Next(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, cw.State())
}

// PrevConvertStep goes back one step.
// POST /api/convert/{id}/back
func (h *Handlers) PrevConvertStep(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	cw.Back()
	writeJSONResponse(w, cw.State())
}

// CompleteConvert renders the command, records it in history and resets
// the session.
// POST /api/convert/{id}/complete
func (h *Handlers) CompleteConvert(w http.ResponseWriter, r *http.Request) {
	cw, ok := h.convertSession(w, r)
	if !ok {
		return
	}
	cmd, err := cw.Complete(h.history)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, CompleteResponse{Command: cmd, State: cw.State()})
}
