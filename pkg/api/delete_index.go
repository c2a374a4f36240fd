package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// HandleDeleteIndex handles DELETE requests that remove one index. The type
// segment is optional.
func (h *Handler) HandleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	db := pathVar(r, "db")
	// ddoc stays encoded; the service accepts "_design%2Fx" references
	ddoc := mux.Vars(r)["ddoc"]
	name := pathVar(r, "name")
	idxType := domain.IndexType(pathVar(r, "type"))

	if err := h.indexes.DeleteIndex(r.Context(), db, ddoc, name, idxType); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
