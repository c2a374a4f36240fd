package indexing

import (
	"context"
	"sort"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// Indexes returns every index of the database: the built-in special index
// first, then user indexes in creation order.
func (r *Registry) Indexes(ctx context.Context, db string) ([]domain.IndexDefinition, error) {
	docs, err := r.store.ListDesignDocs(ctx, db)
	if err != nil {
		return nil, err
	}

	var defs []domain.IndexDefinition
	for _, doc := range docs {
		if doc.Language != domain.QueryLanguage {
			continue
		}
		defs = append(defs, doc.Definitions()...)
	}

	sort.SliceStable(defs, func(i, j int) bool {
		a, b := defs[i], defs[j]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if a.DDoc != b.DDoc {
			return a.DDoc < b.DDoc
		}
		return a.Name < b.Name
	})

	return append([]domain.IndexDefinition{domain.SpecialIndex()}, defs...), nil
}

// ListIndexes returns one page of the listing. Skip is applied before limit.
func (r *Registry) ListIndexes(ctx context.Context, db string, opts domain.ListOptions) (*domain.IndexListing, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	all, err := r.Indexes(ctx, db)
	if err != nil {
		return nil, err
	}

	start, end := opts.Window(len(all))
	page := make([]domain.IndexDefinition, end-start)
	copy(page, all[start:end])
	return &domain.IndexListing{TotalRows: len(all), Indexes: page}, nil
}
