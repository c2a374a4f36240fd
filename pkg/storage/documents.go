package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// GetDesignDoc returns a copy of a design document
func (se *Engine) GetDesignDoc(ctx context.Context, dbName, id string) (*domain.DesignDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := se.database(dbName)
	if err != nil {
		return nil, err
	}

	doc := db.get(id)
	if doc == nil {
		return nil, fmt.Errorf("design document %s: %w", id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

// ListDesignDocs returns a consistent snapshot of every design document in
// the database, ordered by id
func (se *Engine) ListDesignDocs(ctx context.Context, dbName string) ([]*domain.DesignDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := se.database(dbName)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	docs := make([]*domain.DesignDocument, 0, len(db.docs))
	for _, doc := range db.docs {
		docs = append(docs, doc.Clone())
	}
	db.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Mutate runs a read-modify-write cycle on one design document while
// holding that document's lock. The change is journaled before it becomes
// visible to readers. The database cannot be dropped or re-created until
// the cycle completes.
func (se *Engine) Mutate(ctx context.Context, dbName, id string, fn domain.MutateFunc) (*domain.DesignDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	se.adminMu.RLock()
	defer se.adminMu.RUnlock()

	db, err := se.database(dbName)
	if err != nil {
		return nil, err
	}

	var result *domain.DesignDocument
	err = db.withDocLock(id, func() error {
		current := db.get(id)

		next, err := fn(current.Clone())
		if err != nil {
			return err
		}

		if next == nil {
			if current == nil {
				return nil
			}
			return se.commit(&JournalEntry{Type: JournalDelete, Database: dbName, DocumentID: id})
		}

		stored := next.Clone()
		stored.ID = id
		stored.Rev = nextRevision(current, stored)
		if err := se.commit(&JournalEntry{Type: JournalPut, Database: dbName, DocumentID: id, Document: stored}); err != nil {
			return err
		}
		result = stored.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// commit journals an entry and applies it in memory
func (se *Engine) commit(entry *JournalEntry) error {
	se.commitMu.RLock()
	defer se.commitMu.RUnlock()

	if se.journal != nil {
		if err := se.journal.WriteEntry(entry); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		se.updateStats(func(s *Stats) {
			s.JournalEntriesWritten++
		})
	}

	se.applyEntry(entry)
	return nil
}

// applyEntry applies a journal entry to the in-memory state
func (se *Engine) applyEntry(entry *JournalEntry) {
	switch entry.Type {
	case JournalCreateDatabase:
		se.mu.Lock()
		if _, exists := se.databases[entry.Database]; !exists {
			se.databases[entry.Database] = newDatabase(entry.Database)
		}
		se.mu.Unlock()
	case JournalDropDatabase:
		se.mu.Lock()
		delete(se.databases, entry.Database)
		se.mu.Unlock()
	case JournalPut, JournalDelete:
		se.mu.RLock()
		db, exists := se.databases[entry.Database]
		se.mu.RUnlock()
		if !exists {
			return
		}
		db.mu.Lock()
		if entry.Type == JournalPut {
			db.docs[entry.DocumentID] = entry.Document
		} else {
			delete(db.docs, entry.DocumentID)
		}
		db.mu.Unlock()
		if entry.Document != nil {
			for _, idx := range entry.Document.Indexes {
				se.observeSequence(idx.Seq)
			}
		}
	}
}

// nextRevision computes "<generation>-<content hash>" for a new document version
func nextRevision(current, next *domain.DesignDocument) string {
	gen := 0
	if current != nil {
		gen = revGeneration(current.Rev)
	}

	// encoding/json sorts map keys, so the hash is stable
	body, err := json.Marshal(struct {
		Language string                       `json:"language"`
		Indexes  map[string]domain.IndexEntry `json:"indexes"`
	}{next.Language, next.Indexes})
	if err != nil {
		body = []byte(next.ID)
	}
	return fmt.Sprintf("%d-%016x", gen+1, xxhash.Sum64(body))
}

func revGeneration(rev string) int {
	genStr, _, ok := strings.Cut(rev, "-")
	if !ok {
		return 0
	}
	gen, err := strconv.Atoi(genStr)
	if err != nil {
		return 0
	}
	return gen
}
