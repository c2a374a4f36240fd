package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// recover restores state from the snapshot and replays the journal entries
// written after it
func (se *Engine) recover() error {
	start := time.Now()

	if err := os.MkdirAll(se.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := se.LoadFromFile(se.snapshotPath()); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	startLSN := se.lastLSN

	entries, err := ReadJournal(filepath.Join(se.dataDir, JournalFileName))
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	replayed := 0
	for _, entry := range entries {
		if entry.LSN <= startLSN {
			continue
		}
		if err := validateEntry(entry); err != nil {
			return fmt.Errorf("failed to replay journal entry LSN %d: %w", entry.LSN, err)
		}
		se.applyEntry(entry)
		se.lastLSN = entry.LSN
		replayed++
	}

	elapsed := time.Since(start)
	se.updateStats(func(s *Stats) {
		s.RecoveryTime = elapsed
		s.JournalEntriesApplied += int64(replayed)
	})
	se.logger.Info("Recovery completed",
		logger.String("data_dir", se.dataDir),
		logger.Int("databases", len(se.ListDatabases())),
		logger.Int("journal_entries_replayed", replayed),
		logger.Int64("lsn", se.lastLSN),
		logger.Duration("duration", elapsed),
	)
	return nil
}

func validateEntry(entry *JournalEntry) error {
	switch entry.Type {
	case JournalCreateDatabase, JournalDropDatabase, JournalDelete:
		return nil
	case JournalPut:
		if entry.Document == nil {
			return fmt.Errorf("put entry for %s has no document", entry.DocumentID)
		}
		return nil
	default:
		return fmt.Errorf("unknown journal entry type: %d", entry.Type)
	}
}
