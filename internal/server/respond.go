package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/shared"
)

const maxBodyBytes = 1 << 20

type successBody struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	PlaylistID string `json:"playlistId,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: data})
}

// writeError maps err onto its taxonomy code and status. Internal errors are logged and not echoed.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	kind := shared.Kind(err)
	msg := err.Error()

	switch kind {
	case shared.KindInternal:
		logger.Error("request failed", "error", err)
		msg = "internal error"
	case shared.KindUpstream, shared.KindConfiguration:
		logger.Error("request failed", "code", kind.Code, "error", err)
	default:
		logger.Debug("request rejected", "code", kind.Code, "error", err)
	}

	writeJSON(w, kind.Status, errorBody{Error: msg, Code: kind.Code})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
