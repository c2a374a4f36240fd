package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// CreateIndexRequest represents the request body for index creation.
// Every member is decoded as a Raw so that absent and null stay distinct.
type CreateIndexRequest struct {
	Index domain.Raw `json:"index"`
	Type  domain.Raw `json:"type"`
	Name  domain.Raw `json:"name"`
	DDoc  domain.Raw `json:"ddoc"`
}

// CreateIndexResponse represents the response for index creation
type CreateIndexResponse struct {
	Result string `json:"result"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

// HandleCreateIndex handles POST requests that define a new index
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	db := pathVar(r, "db")

	var body CreateIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Debug("Decoding body failed", logger.String("db", db), logger.Error(err))
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	index, ok := body.Index.AsObject()
	if !ok {
		h.writeServiceError(w, r, domain.NewValidationError(domain.InvalidRequest,
			"index must be an object with a fields member, got %s", body.Index.Kind()))
		return
	}

	result, err := h.indexes.CreateIndex(r.Context(), db, domain.CreateIndexRequest{
		Fields: index["fields"],
		Type:   body.Type,
		Name:   body.Name,
		DDoc:   body.DDoc,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response := CreateIndexResponse{Result: "exists", ID: result.ID, Name: result.Name}
	if result.Created {
		response.Result = "created"
	}
	writeJSON(w, http.StatusOK, response)
}
