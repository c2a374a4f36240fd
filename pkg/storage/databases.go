package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// CreateDatabase creates a new, empty database
func (se *Engine) CreateDatabase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateDatabaseName(name); err != nil {
		return err
	}

	se.adminMu.Lock()
	defer se.adminMu.Unlock()

	se.mu.RLock()
	_, exists := se.databases[name]
	se.mu.RUnlock()
	if exists {
		return fmt.Errorf("database %s: %w", name, domain.ErrDatabaseExists)
	}

	return se.commit(&JournalEntry{Type: JournalCreateDatabase, Database: name})
}

// DropDatabase removes a database and every design document in it
func (se *Engine) DropDatabase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	se.adminMu.Lock()
	defer se.adminMu.Unlock()

	if !se.DatabaseExists(name) {
		return fmt.Errorf("database %s: %w", name, domain.ErrDatabaseNotFound)
	}
	return se.commit(&JournalEntry{Type: JournalDropDatabase, Database: name})
}

// DatabaseExists reports whether the database exists
func (se *Engine) DatabaseExists(name string) bool {
	se.mu.RLock()
	defer se.mu.RUnlock()
	_, exists := se.databases[name]
	return exists
}

// ListDatabases returns the names of all databases, sorted
func (se *Engine) ListDatabases() []string {
	se.mu.RLock()
	defer se.mu.RUnlock()

	names := make([]string, 0, len(se.databases))
	for name := range se.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// database returns the named database or ErrDatabaseNotFound
func (se *Engine) database(name string) (*Database, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	db, exists := se.databases[name]
	if !exists {
		return nil, fmt.Errorf("database %s: %w", name, domain.ErrDatabaseNotFound)
	}
	return db, nil
}

func validateDatabaseName(name string) error {
	if name == "" {
		return domain.NewValidationError(domain.InvalidRequest, "database name cannot be empty")
	}
	if strings.HasPrefix(name, "_") {
		return domain.NewValidationError(domain.InvalidRequest, "database name %q must not start with an underscore", name)
	}
	if strings.ContainsAny(name, "/\\ ") {
		return domain.NewValidationError(domain.InvalidRequest, "database name %q contains an illegal character", name)
	}
	return nil
}
