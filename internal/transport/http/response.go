package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vacancy-pipeline/internal/repository/postgresql"
	"vacancy-pipeline/internal/search"
	"vacancy-pipeline/internal/service"
)

type apiError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

func writeFieldErr(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{Message: "validation failed", Fields: map[string]string{field: msg}})
}

// writeServiceError maps service and store errors onto status codes.
// Anything unrecognised is logged and reported as 500 without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var ve *search.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, apiError{Message: "validation failed", Fields: ve.Fields})
	case errors.Is(err, postgresql.ErrDuplicateRecord):
		writeFieldErr(w, "url", "scraped vacancy with this URL already exists")
	case errors.Is(err, postgresql.ErrNotFound), errors.Is(err, service.ErrVacancyNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
