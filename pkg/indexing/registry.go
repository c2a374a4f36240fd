package indexing

import (
	"context"
	"errors"
	"fmt"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
	"github.com/adfharrison1/go-db-index/pkg/metrics"
)

const (
	DefaultBulkConcurrency = 8
	DefaultMaxBulkDelete   = 1000
)

// errIndexExists aborts a mutation when an equivalent index is already present
var errIndexExists = errors.New("index exists")

// Registry owns the index definitions stored in design documents
type Registry struct {
	store           domain.DesignDocumentStore
	logger          logger.Logger
	metrics         *metrics.Metrics
	bulkConcurrency int
	maxBulkDelete   int
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithBulkConcurrency bounds the number of design documents a bulk delete
// removes at once
func WithBulkConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.bulkConcurrency = n
		}
	}
}

// WithMaxBulkDelete caps the number of ids accepted by a bulk delete.
// Zero disables the cap.
func WithMaxBulkDelete(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.maxBulkDelete = n
		}
	}
}

// NewRegistry creates a registry over the given store
func NewRegistry(store domain.DesignDocumentStore, opts ...Option) *Registry {
	r := &Registry{
		store:           store,
		logger:          logger.NewNop(),
		bulkConcurrency: DefaultBulkConcurrency,
		maxBulkDelete:   DefaultMaxBulkDelete,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateIndex validates the request and adds the definition to its design
// document unless an equivalent one is already there.
func (r *Registry) CreateIndex(ctx context.Context, db string, req domain.CreateIndexRequest) (*domain.CreateIndexResult, error) {
	plan, err := planCreate(req)
	if err != nil {
		r.metrics.RecordIndexOp("create", metrics.OutcomeInvalid)
		return nil, err
	}

	name := plan.Name
	_, err = r.store.Mutate(ctx, db, plan.DDoc, func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
		if cur == nil {
			cur = domain.NewDesignDocument(plan.DDoc)
		} else if cur.Language != domain.QueryLanguage {
			return nil, fmt.Errorf("%w: design document %s is not an index document", domain.ErrConflict, plan.DDoc)
		}
		if cur.Indexes == nil {
			cur.Indexes = make(map[string]domain.IndexEntry)
		}

		if existing, ok := cur.FindEquivalent(plan.Type, plan.Fields); ok {
			name = existing
			return nil, errIndexExists
		}
		if _, taken := cur.Indexes[plan.Name]; taken {
			return nil, fmt.Errorf("%w: index %s in %s has a different definition", domain.ErrConflict, plan.Name, plan.DDoc)
		}

		cur.Indexes[plan.Name] = domain.IndexEntry{
			Type: plan.Type,
			Def:  domain.IndexDef{Fields: plan.Fields},
			Seq:  r.store.NextSequence(),
		}
		return cur, nil
	})

	switch {
	case errors.Is(err, errIndexExists):
		r.metrics.RecordIndexOp("create", metrics.OutcomeExists)
		r.logger.Debug("Index already exists",
			logger.String("db", db),
			logger.String("ddoc", plan.DDoc),
			logger.String("name", name))
		return &domain.CreateIndexResult{Created: false, ID: plan.DDoc, Name: name}, nil
	case err != nil:
		r.metrics.RecordIndexOp("create", outcomeFor(err))
		return nil, err
	}

	r.metrics.RecordIndexOp("create", metrics.OutcomeCreated)
	r.logger.Info("Index created",
		logger.String("db", db),
		logger.String("ddoc", plan.DDoc),
		logger.String("name", name),
		logger.String("type", string(plan.Type)),
		logger.String("fields", plan.Fields.Key()))
	return &domain.CreateIndexResult{Created: true, ID: plan.DDoc, Name: name}, nil
}

// DeleteIndex removes one definition. An empty idxType matches any type.
// Removing the last definition of a design document deletes the document.
func (r *Registry) DeleteIndex(ctx context.Context, db, ddocRef, name string, idxType domain.IndexType) error {
	id := domain.ResolveDesignID(ddocRef)
	if domain.LocalDesignID(id) == "" || name == "" {
		r.metrics.RecordIndexOp("delete", metrics.OutcomeNotFound)
		return fmt.Errorf("index %s/%s: %w", ddocRef, name, domain.ErrNotFound)
	}

	var removedDoc bool
	_, err := r.store.Mutate(ctx, db, id, func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
		if cur == nil || cur.Language != domain.QueryLanguage {
			return nil, fmt.Errorf("design document %s: %w", id, domain.ErrNotFound)
		}
		entry, ok := cur.Indexes[name]
		if !ok || (idxType != "" && entry.Type != idxType) {
			return nil, fmt.Errorf("index %s in %s: %w", name, id, domain.ErrNotFound)
		}

		delete(cur.Indexes, name)
		if len(cur.Indexes) == 0 {
			removedDoc = true
			return nil, nil
		}
		return cur, nil
	})
	if err != nil {
		r.metrics.RecordIndexOp("delete", outcomeFor(err))
		return err
	}

	r.metrics.RecordIndexOp("delete", metrics.OutcomeDeleted)
	r.logger.Info("Index deleted",
		logger.String("db", db),
		logger.String("ddoc", id),
		logger.String("name", name),
		logger.Bool("ddoc_removed", removedDoc))
	return nil
}

// GetDesignDoc returns the design document referenced by ddocRef
func (r *Registry) GetDesignDoc(ctx context.Context, db, ddocRef string) (*domain.DesignDocument, error) {
	id := domain.ResolveDesignID(ddocRef)
	if domain.LocalDesignID(id) == "" {
		return nil, fmt.Errorf("design document %s: %w", ddocRef, domain.ErrNotFound)
	}
	return r.store.GetDesignDoc(ctx, db, id)
}

// DeleteDesignDoc removes an index design document and every definition in it
func (r *Registry) DeleteDesignDoc(ctx context.Context, db, ddocRef string) error {
	id := domain.ResolveDesignID(ddocRef)
	if domain.LocalDesignID(id) == "" {
		return fmt.Errorf("design document %s: %w", ddocRef, domain.ErrNotFound)
	}

	_, err := r.store.Mutate(ctx, db, id, func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
		if cur == nil {
			return nil, fmt.Errorf("design document %s: %w", id, domain.ErrNotFound)
		}
		if !cur.IsIndexDocument() {
			return nil, fmt.Errorf("design document %s: %w", id, domain.ErrNotIndexDoc)
		}
		return nil, nil
	})
	return err
}

func outcomeFor(err error) string {
	switch {
	case domain.IsValidationError(err):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDatabaseNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

var _ domain.IndexService = (*Registry)(nil)
