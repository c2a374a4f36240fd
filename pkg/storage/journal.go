package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"
	"time"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// JournalFileName is the journal file inside the data directory
const JournalFileName = "journal.log"

// maxJournalLine bounds a single encoded entry
const maxJournalLine = 16 * 1024 * 1024

// JournalEntryType represents the type of a journal entry
type JournalEntryType uint8

const (
	JournalCreateDatabase JournalEntryType = iota + 1
	JournalDropDatabase
	JournalPut
	JournalDelete
)

// JournalEntry is one line of the write-ahead journal
type JournalEntry struct {
	Type       JournalEntryType       `json:"type"`
	Timestamp  int64                  `json:"timestamp"`
	Database   string                 `json:"database"`
	DocumentID string                 `json:"document_id,omitempty"`
	Document   *domain.DesignDocument `json:"document,omitempty"`
	LSN        int64                  `json:"lsn"` // Log Sequence Number
	Checksum   uint32                 `json:"checksum"`
}

// journalFile is the subset of *os.File the journal writes through
type journalFile interface {
	io.Writer
	io.Seeker
	io.Closer
	Sync() error
	Truncate(size int64) error
}

// Journal appends entries to a JSON-lines file
type Journal struct {
	path       string
	durability DurabilityLevel
	file       journalFile
	currentLSN int64
	// broken is set when a failed append could not be rolled back; the file
	// may end in a partial line and no further entries are accepted
	broken error
	mu     sync.Mutex
}

// OpenJournal opens (or creates) the journal file for appending
func OpenJournal(path string, durability DurabilityLevel) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{path: path, durability: durability, file: file}, nil
}

// SetLSN sets the last used log sequence number
func (j *Journal) SetLSN(lsn int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentLSN = lsn
}

// CurrentLSN returns the last assigned log sequence number
func (j *Journal) CurrentLSN() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.currentLSN
}

// WriteEntry assigns the next LSN to entry and appends it
func (j *Journal) WriteEntry(entry *JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return errors.New("journal is closed")
	}
	if j.broken != nil {
		return fmt.Errorf("journal is unusable: %w", j.broken)
	}

	entry.LSN = j.currentLSN + 1
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixNano()
	}
	entry.Checksum = calculateChecksum(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	offset, err := j.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to locate journal end: %w", err)
	}
	if err := j.append(data); err != nil {
		j.rollback(offset)
		return err
	}

	j.currentLSN = entry.LSN
	return nil
}

func (j *Journal) append(data []byte) error {
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	if j.durability == DurabilityFull {
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync journal: %w", err)
		}
	}
	return nil
}

// rollback cuts the file back to offset so a failed append leaves no
// partial line for later entries to follow
func (j *Journal) rollback(offset int64) {
	if err := j.file.Truncate(offset); err != nil {
		j.broken = fmt.Errorf("failed to roll back journal to offset %d: %w", offset, err)
	}
}

// Truncate discards every entry, used after a checkpoint captured them
func (j *Journal) Truncate() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return errors.New("journal is closed")
	}
	if err := j.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate journal: %w", err)
	}
	j.broken = nil
	return nil
}

// Close closes the journal file
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// ReadJournal reads every entry of a journal file. A torn final line, left
// by a crash mid-write, is ignored; corruption anywhere else is an error.
func ReadJournal(path string) ([]*JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	return readEntries(file)
}

func readEntries(r io.Reader) ([]*JournalEntry, error) {
	var entries []*JournalEntry
	var pending error

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxJournalLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if pending != nil {
			return nil, pending
		}

		var entry JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			pending = fmt.Errorf("failed to unmarshal journal entry: %w", err)
			continue
		}
		if calculateChecksum(&entry) != entry.Checksum {
			pending = fmt.Errorf("checksum verification failed for LSN %d", entry.LSN)
			continue
		}
		entries = append(entries, &entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal: %w", err)
	}
	return entries, nil
}

func calculateChecksum(entry *JournalEntry) uint32 {
	entryCopy := *entry
	entryCopy.Checksum = 0

	data, err := json.Marshal(entryCopy)
	if err != nil {
		return 0
	}
	return crc32.ChecksumIEEE(data)
}
