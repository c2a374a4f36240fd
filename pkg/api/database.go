package api

import (
	"net/http"

	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// OKResponse is the body of successful mutations that return nothing else
type OKResponse struct {
	OK bool `json:"ok"`
}

// HandleCreateDatabase handles PUT requests that create a database
func (h *Handler) HandleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	db := pathVar(r, "db")

	if err := h.databases.CreateDatabase(r.Context(), db); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("Database created", logger.String("db", db))
	writeJSON(w, http.StatusCreated, OKResponse{OK: true})
}

// HandleDeleteDatabase handles DELETE requests that drop a database
func (h *Handler) HandleDeleteDatabase(w http.ResponseWriter, r *http.Request) {
	db := pathVar(r, "db")

	if err := h.databases.DropDatabase(r.Context(), db); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("Database dropped", logger.String("db", db))
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
