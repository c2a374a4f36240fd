package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// Handler provides HTTP handlers for the index API
type Handler struct {
	indexes   domain.IndexService
	databases domain.DatabaseAdmin
	logger    logger.Logger
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(indexes domain.IndexService, databases domain.DatabaseAdmin, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		indexes:   indexes,
		databases: databases,
		logger:    log,
	}
}

// pathVar returns a decoded route variable. Routes match on the encoded path
// so that "%2F" inside a segment is not treated as a separator.
func pathVar(r *http.Request, key string) string {
	raw := mux.Vars(r)[key]
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
