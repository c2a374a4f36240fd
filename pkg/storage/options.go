package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// DurabilityLevel represents the durability guarantee of journal writes
type DurabilityLevel int

const (
	DurabilityNone DurabilityLevel = iota // no journal writes
	DurabilityOS                          // written to the OS page cache (default)
	DurabilityFull                        // fsync after every entry
)

// ParseDurability converts a configuration value to a DurabilityLevel
func ParseDurability(s string) (DurabilityLevel, error) {
	switch strings.ToLower(s) {
	case "none":
		return DurabilityNone, nil
	case "", "os":
		return DurabilityOS, nil
	case "full":
		return DurabilityFull, nil
	default:
		return DurabilityOS, fmt.Errorf("unknown durability level %q", s)
	}
}

// Option configures the storage engine
type Option func(*Engine)

// WithDataDir sets the directory for the snapshot and journal. Without it
// the engine is memory-only.
func WithDataDir(dir string) Option {
	return func(engine *Engine) {
		engine.dataDir = dir
	}
}

// WithSnapshotFile sets the snapshot file name inside the data directory
func WithSnapshotFile(name string) Option {
	return func(engine *Engine) {
		engine.snapshotFile = name
	}
}

// WithJournal enables or disables the write-ahead journal (default: true)
func WithJournal(enabled bool) Option {
	return func(engine *Engine) {
		engine.journalEnabled = enabled
	}
}

// WithDurability sets the journal durability level
func WithDurability(level DurabilityLevel) Option {
	return func(engine *Engine) {
		engine.durability = level
		if level == DurabilityNone {
			engine.journalEnabled = false
		}
	}
}

// WithCheckpointInterval sets how often the background worker checkpoints.
// Zero disables background checkpoints.
func WithCheckpointInterval(interval time.Duration) Option {
	return func(engine *Engine) {
		engine.checkpointInterval = interval
	}
}

// WithLogger sets the engine logger
func WithLogger(l logger.Logger) Option {
	return func(engine *Engine) {
		engine.logger = l
	}
}
