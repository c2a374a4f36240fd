package api

import (
	"net/http"
	"strconv"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// HandleGetIndexes handles GET requests that list the indexes of a database
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	db := pathVar(r, "db")

	opts, err := parseListOptions(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	listing, err := h.indexes.ListIndexes(r.Context(), db, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Debug("Listed indexes",
		logger.String("db", db),
		logger.Int("returned", len(listing.Indexes)),
		logger.Int("total_rows", listing.TotalRows))
	writeJSON(w, http.StatusOK, listing)
}

// parseListOptions reads limit and skip from the query string
func parseListOptions(r *http.Request) (domain.ListOptions, error) {
	var opts domain.ListOptions
	query := r.URL.Query()

	for _, param := range []struct {
		name string
		dest **int
	}{
		{"limit", &opts.Limit},
		{"skip", &opts.Skip},
	} {
		if !query.Has(param.name) {
			continue
		}
		raw := query.Get(param.name)
		value, err := strconv.Atoi(raw)
		if err != nil {
			return opts, &domain.PaginationError{Param: param.name, Value: raw}
		}
		*param.dest = &value
	}
	return opts, nil
}
