package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kdimtricp/camlens/internal/analysis"
	"github.com/kdimtricp/camlens/internal/database"
	"github.com/kdimtricp/camlens/internal/storage"
	"github.com/kdimtricp/camlens/internal/video"
	"github.com/rs/zerolog/hlog"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, video.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrEmptySnapshot),
		errors.Is(err, database.ErrEmptyPrompt),
		errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
