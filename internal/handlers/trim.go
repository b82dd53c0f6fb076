package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/filesystem"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/streaming"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"

	"github.com/gorilla/mux"
)

// scrubWaitTimeout bounds how long a scrub with wait=true blocks.
const scrubWaitTimeout = 15 * time.Second

// multipartOverhead is allowed on top of the upload limit for part headers
// and the path fields.
const multipartOverhead = 1 << 20

// ScrubRequest moves the trim handles. Thumb is 0 for the start handle and
// 1 for the end handle.
type ScrubRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Thumb int     `json:"thumb"`
}

// ScrubResponse reports the issued scrub and, with wait=true, whether its
// frame was published or superseded by a newer scrub.
type ScrubResponse struct {
	Token      uint64           `json:"token"`
	Time       float64          `json:"time"`
	Ready      bool             `json:"ready"`
	Superseded bool             `json:"superseded,omitempty"`
	State      wizard.TrimState `json:"state"`
}

// TimesRequest sets the typed trim bounds. Omitted fields are unchanged.
type TimesRequest struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

func (h *Handlers) trimSession(w http.ResponseWriter, r *http.Request) (*wizard.TrimWizard, bool) {
	tw, err := h.sessions.Trim(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return tw, true
}

// CreateTrim starts a trim session.
// POST /api/trim
func (h *Handlers) CreateTrim(w http.ResponseWriter, _ *http.Request) {
	id, tw := h.sessions.NewTrim()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/trim/"+id)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, SessionResponse{ID: id, State: tw.State()})
}

// GetTrim returns a trim session's state.
// GET /api/trim/{id}
func (h *Handlers) GetTrim(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, tw.State())
}

// DeleteTrim dismisses a trim session and releases its source.
// DELETE /api/trim/{id}
func (h *Handlers) DeleteTrim(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteTrim(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadTrimFile replaces the session's video with a multipart upload and
// waits for its metadata. The "path" and "relativePath" fields, when sent,
// must precede the "file" part. A file that cannot be decoded yields 422
// and leaves the session usable.
// PUT /api/trim/{id}/file
func (h *Handlers) UploadTrimFile(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}

	// Large uploads outlive any server-wide read deadline.
	if err := http.NewResponseController(w).SetReadDeadline(time.Time{}); err != nil &&
		!errors.Is(err, http.ErrNotSupported) {
		logging.Debug("Failed to clear upload read deadline: %v", err)
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSONError(w, "Expected multipart/form-data upload", http.StatusBadRequest)
		return
	}

	var file FileRequest
	var done <-chan struct{}
	for done == nil {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeJSONError(w, "Missing file part", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeUploadError(w, r, err)
			return
		}

		switch part.FormName() {
		case "path", "relativePath":
			value, err := io.ReadAll(io.LimitReader(part, 4096))
			if err != nil {
				writeUploadError(w, r, err)
				return
			}
			if part.FormName() == "path" {
				file.Path = strings.TrimSpace(string(value))
			} else {
				file.RelativePath = strings.TrimSpace(string(value))
			}
		case "file":
			file.Name = part.FileName()
			done, err = tw.SelectFile(file.displayName(), part)
			if err != nil {
				writeUploadError(w, r, err)
				return
			}
		}
		_ = part.Close()
	}

	select {
	case <-done:
	case <-r.Context().Done():
		return
	}

	state := tw.State()
	if state.Error != "" {
		logging.Warn("Trim source %s could not be decoded: %s", file.displayName(), state.Error)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, map[string]interface{}{
			"error": state.Error,
			"state": state,
		})
		return
	}
	writeJSONResponse(w, state)
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, preview.ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if isReadTimeout(err) {
		writeJSONError(w, "Upload timed out", http.StatusRequestTimeout)
		return
	}
	if errorStatus(err) == http.StatusInternalServerError {
		logging.Error("Upload failed: %v", err)
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	writeError(w, r, err)
}

// isReadTimeout reports a request body read that hit a deadline.
func isReadTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// GetTrimMedia serves the session's source bytes for playback, honouring
// Range requests.
// GET /api/trim/{id}/media
func (h *Handlers) GetTrimMedia(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	src := tw.Source()
	if src == nil || src.Released() {
		writeJSONError(w, "No media loaded", http.StatusNotFound)
		return
	}

	f, err := filesystem.OpenWithRetry(src.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			writeJSONError(w, "No media loaded", http.StatusNotFound)
			return
		}
		logging.Error("Failed to open source %s: %v", src.Path, err)
		writeJSONError(w, "Failed to open media", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if src.MimeType != "" {
		w.Header().Set("Content-Type", src.MimeType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": src.Name}))

	if _, err := streaming.ServeContent(w, r, src.Name, src.CreatedAt, f, h.stream); err != nil &&
		!errors.Is(err, streaming.ErrClientGone) && !errors.Is(err, streaming.ErrStreamCanceled) {
		logging.Warn("Streaming %s failed: %v", src.Name, err)
	}
}

// ScrubTrim moves the trim handles and seeks the preview to the dragged
// handle. With wait=true it blocks until that scrub's frame is published
// or superseded.
// POST /api/trim/{id}/scrub
func (h *Handlers) ScrubTrim(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	var req ScrubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	scrub, err := tw.SetRange(req.Start, req.End, req.Thumb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := ScrubResponse{Token: scrub.Token, Time: scrub.Time}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), scrubWaitTimeout)
		defer cancel()

		_, err := tw.WaitPreview(ctx, scrub)
		switch {
		case err == nil:
			resp.Ready = true
		case errors.Is(err, preview.ErrSuperseded):
			resp.Superseded = true
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			resp.State = tw.State()
			writeJSON(w, resp)
			return
		default:
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	resp.State = tw.State()
	writeJSONResponse(w, resp)
}

// EndTrimScrub commits the drag and hides the preview.
// POST /api/trim/{id}/scrub/end
func (h *Handlers) EndTrimScrub(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	tw.EndScrub()
	writeJSONResponse(w, tw.State())
}

// GetTrimPreview returns the latest preview frame as JPEG, or 204 while
// the preview is hidden.
// GET /api/trim/{id}/preview
func (h *Handlers) GetTrimPreview(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	frame, ok := tw.Preview()
	if !ok || !tw.PreviewVisible() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Preview-Token", strconv.FormatUint(frame.Token, 10))
	w.Header().Set("X-Preview-Time", strconv.FormatFloat(frame.Time, 'f', 3, 64))
	w.Header().Set("Content-Length", strconv.Itoa(len(frame.Image)))
	if _, err := w.Write(frame.Image); err != nil {
		logging.Debug("Preview write failed: %v", err)
	}
}

// SetTrimTimes replaces the typed start and end bounds verbatim.
// PUT /api/trim/{id}/times
func (h *Handlers) SetTrimTimes(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	var req TimesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Start != nil {
		tw.SetStartText(*req.Start)
	}
	if req.End != nil {
		tw.SetEndText(*req.End)
	}
	writeJSONResponse(w, tw.State())
}

// GetTrimTimecode renders t seconds at the source's frame rate.
// GET /api/trim/{id}/timecode?t=90.5
func (h *Handlers) GetTrimTimecode(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		writeJSONError(w, "Query parameter t must be a number of seconds", http.StatusBadRequest)
		return
	}
	writeJSONResponse(w, tw.Timecode(t))
}

// CompleteTrim renders the trim command, records it in history and clears
// the session.
// POST /api/trim/{id}/complete
func (h *Handlers) CompleteTrim(w http.ResponseWriter, r *http.Request) {
	tw, ok := h.trimSession(w, r)
	if !ok {
		return
	}
	cmd, err := tw.Complete(h.history)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, CompleteResponse{Command: cmd, State: tw.State()})
}
