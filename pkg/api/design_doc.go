package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// DesignDocInfo represents the response of the design document info endpoint
type DesignDocInfo struct {
	Name      string        `json:"name"`
	ViewIndex ViewIndexInfo `json:"view_index"`
}

// ViewIndexInfo summarizes the indexes a design document defines
type ViewIndexInfo struct {
	Language   string   `json:"language"`
	Signature  string   `json:"signature"`
	IndexCount int      `json:"index_count"`
	Indexes    []string `json:"indexes"`
}

// HandleGetDesignDoc handles GET requests for a design document
func (h *Handler) HandleGetDesignDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := h.indexes.GetDesignDoc(r.Context(), pathVar(r, "db"), mux.Vars(r)["ddoc"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleGetDesignDocInfo handles GET requests for design document metadata
func (h *Handler) HandleGetDesignDocInfo(w http.ResponseWriter, r *http.Request) {
	doc, err := h.indexes.GetDesignDoc(r.Context(), pathVar(r, "db"), mux.Vars(r)["ddoc"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	info := DesignDocInfo{
		Name: domain.LocalDesignID(doc.ID),
		ViewIndex: ViewIndexInfo{
			Language:   doc.Language,
			Signature:  doc.Rev,
			IndexCount: len(doc.Indexes),
			Indexes:    make([]string, 0, len(doc.Indexes)),
		},
	}
	for _, def := range doc.Definitions() {
		info.ViewIndex.Indexes = append(info.ViewIndex.Indexes, def.Name)
	}
	writeJSON(w, http.StatusOK, info)
}
