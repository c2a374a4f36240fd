package domain

import "context"

// MutateFunc receives a private copy of the current design document (nil if
// it does not exist) and returns the next version. Returning nil deletes the
// document; returning an error leaves the store untouched.
type MutateFunc func(current *DesignDocument) (*DesignDocument, error)

// DesignDocumentStore defines the durable design document store the index
// subsystem is built on
type DesignDocumentStore interface {
	CreateDatabase(ctx context.Context, name string) error
	DropDatabase(ctx context.Context, name string) error
	DatabaseExists(name string) bool
	GetDesignDoc(ctx context.Context, db, id string) (*DesignDocument, error)
	ListDesignDocs(ctx context.Context, db string) ([]*DesignDocument, error)
	// Mutate serializes read-modify-write cycles per (db, id)
	Mutate(ctx context.Context, db, id string, fn MutateFunc) (*DesignDocument, error)
	NextSequence() uint64
}

// DatabaseAdmin is the subset of the store exposed to the HTTP layer
type DatabaseAdmin interface {
	CreateDatabase(ctx context.Context, name string) error
	DropDatabase(ctx context.Context, name string) error
	DatabaseExists(name string) bool
}
