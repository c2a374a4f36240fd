package indexing

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
	"github.com/adfharrison1/go-db-index/pkg/metrics"
)

// Bulk delete failure reasons
const (
	ReasonNotFound    = "not_found"
	ReasonNotIndexDoc = "not_an_index_document"
)

// BulkDelete removes each listed design document independently. A failing id
// never affects the others; results keep input order.
func (r *Registry) BulkDelete(ctx context.Context, db string, ids []string) (*domain.BulkDeleteResult, error) {
	if !r.store.DatabaseExists(db) {
		return nil, domain.ErrDatabaseNotFound
	}
	if r.maxBulkDelete > 0 && len(ids) > r.maxBulkDelete {
		return nil, domain.NewValidationError(domain.InvalidRequest,
			"bulk delete accepts at most %d ids, got %d", r.maxBulkDelete, len(ids))
	}

	outcomes := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(r.bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = r.DeleteDesignDoc(ctx, db, id)
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.BulkDeleteResult{
		Success: make([]domain.BulkDeleteSuccess, 0, len(ids)),
		Fail:    make([]domain.BulkDeleteFailure, 0),
	}
	for i, id := range ids {
		if err := outcomes[i]; err != nil {
			r.metrics.RecordBulkDeleteItem(metrics.OutcomeFailed)
			result.Fail = append(result.Fail, domain.BulkDeleteFailure{ID: id, Reason: failureReason(err)})
			continue
		}
		r.metrics.RecordBulkDeleteItem(metrics.OutcomeSuccess)
		result.Success = append(result.Success, domain.BulkDeleteSuccess{ID: id, OK: true})
	}

	r.logger.Info("Bulk delete completed",
		logger.String("db", db),
		logger.Int("requested", len(ids)),
		logger.Int("deleted", len(result.Success)),
		logger.Int("failed", len(result.Fail)))
	return result, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, domain.ErrNotIndexDoc):
		return ReasonNotIndexDoc
	default:
		return err.Error()
	}
}
