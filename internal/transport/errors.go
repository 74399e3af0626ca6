package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/driveline/driveline/internal/models"
)

// errorResponse is the wire shape of every failure.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps a tagged engine error onto a distinct HTTP status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrNodeNotFound), errors.Is(err, models.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, models.ErrQuotaExceeded):
		status = http.StatusInsufficientStorage
	case errors.Is(err, models.ErrInvalidName):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotAFile), errors.Is(err, models.ErrNotAFolder):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenInvalid):
		status = http.StatusUnauthorized
	case models.IsPhysical(err, ""):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrBrokenChain):
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
