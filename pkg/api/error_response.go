package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// StatusForError maps a service error to its HTTP status code
func StatusForError(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsPaginationError(err):
		// out-of-range pagination is reported as a server error
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDatabaseNotFound),
		errors.Is(err, domain.ErrNotIndexDoc):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDatabaseExists):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes the matching JSON error response
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	fields := []logger.Field{
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError && !domain.IsPaginationError(err) {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Debug("Request rejected", fields...)
	}
	WriteJSONError(w, status, err.Error())
}
