package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router. The router
// must match on encoded paths (mux.Router.UseEncodedPath) so that escaped
// design document ids stay in one segment.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Index operations
	router.HandleFunc("/{db}/_index", h.HandleGetIndexes).Methods("GET")
	router.HandleFunc("/{db}/_index", h.HandleCreateIndex).Methods("POST")
	router.HandleFunc("/{db}/_index/_bulk_delete", h.HandleBulkDelete).Methods("POST")

	// "_design/" forms first so the literal prefix is not read as a ddoc name
	router.HandleFunc("/{db}/_index/_design/{ddoc}/{type}/{name}", h.HandleDeleteIndex).Methods("DELETE")
	router.HandleFunc("/{db}/_index/_design/{ddoc}/{name}", h.HandleDeleteIndex).Methods("DELETE")
	router.HandleFunc("/{db}/_index/{ddoc}/{type}/{name}", h.HandleDeleteIndex).Methods("DELETE")
	router.HandleFunc("/{db}/_index/{ddoc}/{name}", h.HandleDeleteIndex).Methods("DELETE")

	// Design documents
	router.HandleFunc("/{db}/_design/{ddoc}", h.HandleGetDesignDoc).Methods("GET")
	router.HandleFunc("/{db}/_design/{ddoc}/_info", h.HandleGetDesignDocInfo).Methods("GET")

	// Database operations
	router.HandleFunc("/{db}", h.HandleCreateDatabase).Methods("PUT")
	router.HandleFunc("/{db}", h.HandleDeleteDatabase).Methods("DELETE")
}
