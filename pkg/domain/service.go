package domain

import "context"

// CreateIndexRequest carries the untrusted create arguments
type CreateIndexRequest struct {
	Fields Raw
	Type   Raw
	Name   Raw
	DDoc   Raw
}

// CreateIndexResult describes the outcome of a create call
type CreateIndexResult struct {
	Created bool   // false means an equivalent index already existed
	ID      string // design document id
	Name    string
}

// BulkDeleteSuccess is a design document removed by a bulk delete
type BulkDeleteSuccess struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

// BulkDeleteFailure is a design document a bulk delete could not remove
type BulkDeleteFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkDeleteResult reports per-item outcomes in input order
type BulkDeleteResult struct {
	Success []BulkDeleteSuccess `json:"success"`
	Fail    []BulkDeleteFailure `json:"fail"`
}

// IndexService defines the index definition lifecycle operations
type IndexService interface {
	CreateIndex(ctx context.Context, db string, req CreateIndexRequest) (*CreateIndexResult, error)
	ListIndexes(ctx context.Context, db string, opts ListOptions) (*IndexListing, error)
	DeleteIndex(ctx context.Context, db, ddocRef, name string, idxType IndexType) error
	BulkDelete(ctx context.Context, db string, ids []string) (*BulkDeleteResult, error)
	GetDesignDoc(ctx context.Context, db, ddocRef string) (*DesignDocument, error)
}
