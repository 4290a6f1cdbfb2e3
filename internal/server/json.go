package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/playperu/minigames/internal/room"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// readOptionalJSON is readJSON for endpoints whose body may be empty.
func readOptionalJSON(r *http.Request, v any) error {
	if err := readJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// writeRoomError maps room errors onto HTTP statuses. Anything unrecognised
// is logged and reported as an internal error.
func writeRoomError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, room.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, room.ErrAuth):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, room.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, room.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, room.ErrTiming):
		writeError(w, http.StatusConflict, "timing", err.Error())
	case errors.Is(err, room.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, "duplicate_submission", err.Error())
	default:
		logger.Error("room operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
