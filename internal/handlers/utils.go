package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"
)

// maxJSONBody bounds request bodies for the JSON endpoints.
const maxJSONBody = 64 << 10

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// writeJSONResponse writes v as a 200 JSON response.
func writeJSONResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, v)
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// errorStatus maps wizard and preview errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrStepIncomplete),
		errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, preview.ErrNotReady),
		errors.Is(err, preview.ErrNoDuration),
		errors.Is(err, preview.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, preview.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, wizard.ErrNoFile),
		errors.Is(err, wizard.ErrUnknownCodec),
		errors.Is(err, wizard.ErrUnknownExtension),
		errors.Is(err, wizard.ErrUnknownPixelFormat),
		errors.Is(err, wizard.ErrInvalidDimension),
		errors.Is(err, wizard.ErrInvalidThumb),
		errors.Is(err, wizard.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status errorStatus assigns it. Server
// errors are logged and their text withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "Internal server error", status)
		return
	}
	writeJSONError(w, err.Error(), status)
}
