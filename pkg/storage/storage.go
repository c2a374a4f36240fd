package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// DocLock serializes mutations of a single design document
type DocLock struct {
	mu sync.Mutex
}

// Database holds the design documents of one database.
// Stored documents are never mutated in place; writers swap in new values.
type Database struct {
	name    string
	mu      sync.RWMutex
	docs    map[string]*domain.DesignDocument
	created time.Time

	// Per-document locks for read-modify-write cycles
	docLocks map[string]*DocLock
	locksMu  sync.RWMutex
}

func newDatabase(name string) *Database {
	return &Database{
		name:     name,
		docs:     make(map[string]*domain.DesignDocument),
		created:  time.Now(),
		docLocks: make(map[string]*DocLock),
	}
}

// getOrCreateDocLock gets or creates the lock for a design document
func (db *Database) getOrCreateDocLock(id string) *DocLock {
	db.locksMu.RLock()
	if lock, exists := db.docLocks[id]; exists {
		db.locksMu.RUnlock()
		return lock
	}
	db.locksMu.RUnlock()

	db.locksMu.Lock()
	defer db.locksMu.Unlock()

	// Double-check in case another goroutine created it
	if lock, exists := db.docLocks[id]; exists {
		return lock
	}

	lock := &DocLock{}
	db.docLocks[id] = lock
	return lock
}

// withDocLock executes fn while holding the design document's lock
func (db *Database) withDocLock(id string, fn func() error) error {
	lock := db.getOrCreateDocLock(id)
	lock.mu.Lock()
	defer lock.mu.Unlock()
	return fn()
}

func (db *Database) get(id string) *domain.DesignDocument {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.docs[id]
}

// Engine is the in-memory design document store with an optional
// journal and snapshot on disk
type Engine struct {
	mu        sync.RWMutex
	databases map[string]*Database
	adminMu   sync.RWMutex // exclusive for database create/drop, shared by Mutate

	// commitMu is held shared by writers across journal append and apply,
	// and exclusively by checkpoints
	commitMu sync.RWMutex

	journal  *Journal
	sequence atomic.Uint64
	lastLSN  int64

	// Configuration
	dataDir            string
	snapshotFile       string
	journalEnabled     bool
	durability         DurabilityLevel
	checkpointInterval time.Duration
	logger             logger.Logger

	// Background workers
	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	closeOnce    sync.Once
	closeErr     error

	stats   Stats
	statsMu sync.RWMutex
}

// Stats holds storage statistics
type Stats struct {
	JournalEntriesWritten int64
	JournalEntriesApplied int64
	Checkpoints           int64
	LastCheckpoint        time.Time
	RecoveryTime          time.Duration
}

// NewEngine creates a storage engine. With a data directory configured it
// recovers the previous state from the snapshot and journal found there.
func NewEngine(options ...Option) (*Engine, error) {
	engine := &Engine{
		databases:          make(map[string]*Database),
		snapshotFile:       "indexes" + FileExtension,
		journalEnabled:     true,
		durability:         DurabilityOS,
		checkpointInterval: 5 * time.Minute,
		logger:             logger.NewNop(),
		stopChan:           make(chan struct{}),
	}

	for _, option := range options {
		option(engine)
	}

	if engine.dataDir == "" {
		return engine, nil
	}

	if err := engine.recover(); err != nil {
		return nil, fmt.Errorf("recovery failed: %w", err)
	}

	if engine.journalEnabled {
		journal, err := OpenJournal(filepath.Join(engine.dataDir, JournalFileName), engine.durability)
		if err != nil {
			return nil, err
		}
		journal.SetLSN(engine.lastLSN)
		engine.journal = journal
	}

	return engine, nil
}

// Persistent reports whether the engine writes to disk
func (se *Engine) Persistent() bool {
	return se.dataDir != ""
}

// NextSequence returns a process-wide increasing sequence number used to
// order index definitions by creation
func (se *Engine) NextSequence() uint64 {
	return se.sequence.Add(1)
}

// observeSequence raises the sequence counter to at least seq
func (se *Engine) observeSequence(seq uint64) {
	for {
		cur := se.sequence.Load()
		if seq <= cur || se.sequence.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// GetStats returns a copy of the storage statistics
func (se *Engine) GetStats() Stats {
	se.statsMu.RLock()
	defer se.statsMu.RUnlock()
	return se.stats
}

func (se *Engine) updateStats(fn func(*Stats)) {
	se.statsMu.Lock()
	defer se.statsMu.Unlock()
	fn(&se.stats)
}

func (se *Engine) snapshotPath() string {
	return filepath.Join(se.dataDir, se.snapshotFile)
}

var _ domain.DesignDocumentStore = (*Engine)(nil)
