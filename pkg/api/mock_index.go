package api

import (
	"context"
	"sync"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// MockIndexService provides a mock implementation of domain.IndexService for
// testing. Each operation returns the configured result or error and records
// the arguments it was called with.
type MockIndexService struct {
	mu sync.RWMutex

	CreateResult *domain.CreateIndexResult
	CreateErr    error
	Listing      *domain.IndexListing
	ListErr      error
	DeleteErr    error
	BulkResult   *domain.BulkDeleteResult
	BulkErr      error
	DesignDoc    *domain.DesignDocument
	DesignDocErr error

	createCalls []domain.CreateIndexRequest
	listCalls   []domain.ListOptions
	deleteCalls []DeleteCall
	bulkCalls   [][]string
	getDocCalls []string
}

// DeleteCall records the arguments of one DeleteIndex call
type DeleteCall struct {
	DB   string
	DDoc string
	Name string
	Type domain.IndexType
}

// NewMockIndexService creates a new mock index service
func NewMockIndexService() *MockIndexService {
	return &MockIndexService{}
}

// CreateIndex records the request and returns the configured result
func (m *MockIndexService) CreateIndex(ctx context.Context, db string, req domain.CreateIndexRequest) (*domain.CreateIndexResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls = append(m.createCalls, req)
	return m.CreateResult, m.CreateErr
}

// ListIndexes records the options and returns the configured listing
func (m *MockIndexService) ListIndexes(ctx context.Context, db string, opts domain.ListOptions) (*domain.IndexListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, opts)
	return m.Listing, m.ListErr
}

// DeleteIndex records the call and returns the configured error
func (m *MockIndexService) DeleteIndex(ctx context.Context, db, ddocRef, name string, idxType domain.IndexType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, DeleteCall{DB: db, DDoc: ddocRef, Name: name, Type: idxType})
	return m.DeleteErr
}

// BulkDelete records the ids and returns the configured result
func (m *MockIndexService) BulkDelete(ctx context.Context, db string, ids []string) (*domain.BulkDeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkCalls = append(m.bulkCalls, ids)
	return m.BulkResult, m.BulkErr
}

// GetDesignDoc records the reference and returns the configured document
func (m *MockIndexService) GetDesignDoc(ctx context.Context, db, ddocRef string) (*domain.DesignDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getDocCalls = append(m.getDocCalls, ddocRef)
	return m.DesignDoc, m.DesignDocErr
}

// CreateCalls returns the recorded create requests
func (m *MockIndexService) CreateCalls() []domain.CreateIndexRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.CreateIndexRequest(nil), m.createCalls...)
}

// ListCalls returns the recorded list options
func (m *MockIndexService) ListCalls() []domain.ListOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.ListOptions(nil), m.listCalls...)
}

// DeleteCalls returns the recorded delete calls
func (m *MockIndexService) DeleteCalls() []DeleteCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]DeleteCall(nil), m.deleteCalls...)
}

// BulkCalls returns the recorded bulk delete id lists
func (m *MockIndexService) BulkCalls() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]string(nil), m.bulkCalls...)
}

// GetDocCalls returns the recorded design document references
func (m *MockIndexService) GetDocCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.getDocCalls...)
}

// MockDatabaseAdmin provides a mock implementation of domain.DatabaseAdmin
type MockDatabaseAdmin struct {
	mu        sync.RWMutex
	databases map[string]bool
}

// NewMockDatabaseAdmin creates a mock holding the given databases
func NewMockDatabaseAdmin(names ...string) *MockDatabaseAdmin {
	m := &MockDatabaseAdmin{databases: make(map[string]bool)}
	for _, name := range names {
		m.databases[name] = true
	}
	return m
}

// CreateDatabase adds a database
func (m *MockDatabaseAdmin) CreateDatabase(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.databases[name] {
		return domain.ErrDatabaseExists
	}
	m.databases[name] = true
	return nil
}

// DropDatabase removes a database
func (m *MockDatabaseAdmin) DropDatabase(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.databases[name] {
		return domain.ErrDatabaseNotFound
	}
	delete(m.databases, name)
	return nil
}

// DatabaseExists reports whether a database exists
func (m *MockDatabaseAdmin) DatabaseExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.databases[name]
}
