package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// BulkDeleteRequest represents the request body for bulk design document deletion
type BulkDeleteRequest struct {
	DocIDs domain.Raw `json:"docids"`
}

// HandleBulkDelete handles POST requests that remove several index design
// documents at once. Per-id failures are reported in the body, not the status.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	db := pathVar(r, "db")

	var body BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Debug("Decoding body failed", logger.String("db", db), logger.Error(err))
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ids, err := parseDocIDs(body.DocIDs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.indexes.BulkDelete(r.Context(), db, ids)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseDocIDs(raw domain.Raw) ([]string, error) {
	items, ok := raw.AsArray()
	if !ok {
		return nil, domain.NewValidationError(domain.InvalidRequest, "docids must be an array of strings, got %s", raw.Kind())
	}
	ids := make([]string, len(items))
	for i, item := range items {
		id, ok := item.AsString()
		if !ok {
			return nil, domain.NewValidationError(domain.InvalidRequest, "docids[%d] must be a string, got %s", i, item.Kind())
		}
		ids[i] = id
	}
	return ids, nil
}
