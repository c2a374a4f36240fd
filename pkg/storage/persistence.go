package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// EncodeSnapshot writes a header, the uncompressed payload length and the
// (lz4 block compressed when it helps) msgpack payload
func EncodeSnapshot(w io.Writer, data *SnapshotData) error {
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	flags := uint8(0)
	body := payload
	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(payload, compressed, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	// n == 0 means the payload is incompressible
	if n > 0 && n < len(payload) {
		flags |= FlagCompressed
		body = compressed[:n]
	}

	if err := WriteHeader(w, flags); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("failed to write payload length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot
func DecodeSnapshot(r io.Reader) (*SnapshotData, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid file header: %w", err)
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("failed to read payload length: %w", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	payload := body
	if header.Flags&FlagCompressed != 0 {
		payload = make([]byte, size)
		n, err := lz4.UncompressBlock(body, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress data: %w", err)
		}
		payload = payload[:n]
	}
	if len(payload) != int(size) {
		return nil, fmt.Errorf("payload length mismatch: expected %d, got %d", size, len(payload))
	}

	data := NewSnapshotData()
	if err := msgpack.Unmarshal(payload, data); err != nil {
		return nil, fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return data, nil
}

// SaveToFile writes a snapshot of all databases to filename. The file is
// written to a temporary name first and renamed into place.
func (se *Engine) SaveToFile(filename string) error {
	se.commitMu.Lock()
	data := se.captureSnapshot()
	se.commitMu.Unlock()
	return writeSnapshotFile(filename, data)
}

// LoadFromFile replaces the in-memory state with a snapshot file. A missing
// file is not an error.
func (se *Engine) LoadFromFile(filename string) error {
	data, err := readSnapshotFile(filename)
	if err != nil || data == nil {
		return err
	}
	se.restoreSnapshot(data)
	return nil
}

// Checkpoint writes a snapshot to the data directory and truncates the
// journal. Writers are paused for its duration.
func (se *Engine) Checkpoint() error {
	if !se.Persistent() {
		return nil
	}

	se.commitMu.Lock()
	defer se.commitMu.Unlock()

	start := time.Now()
	data := se.captureSnapshot()
	if err := writeSnapshotFile(se.snapshotPath(), data); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if se.journal != nil {
		if err := se.journal.Truncate(); err != nil {
			return err
		}
	}

	now := time.Now()
	se.updateStats(func(s *Stats) {
		s.Checkpoints++
		s.LastCheckpoint = now
	})
	se.logger.Debug("Checkpoint completed",
		logger.Int64("lsn", data.LSN),
		logger.Duration("duration", time.Since(start)),
	)
	return nil
}

func (se *Engine) captureSnapshot() *SnapshotData {
	data := NewSnapshotData()
	if se.journal != nil {
		data.LSN = se.journal.CurrentLSN()
	} else {
		data.LSN = se.lastLSN
	}
	data.Metadata["sequence"] = se.sequence.Load()
	data.Metadata["saved_at"] = time.Now().UTC().Format(time.RFC3339)

	se.mu.RLock()
	defer se.mu.RUnlock()
	for name, db := range se.databases {
		db.mu.RLock()
		docs := make(map[string]*domain.DesignDocument, len(db.docs))
		for id, doc := range db.docs {
			docs[id] = doc
		}
		db.mu.RUnlock()
		data.Databases[name] = docs
	}
	return data
}

func (se *Engine) restoreSnapshot(data *SnapshotData) {
	se.mu.Lock()
	defer se.mu.Unlock()

	se.databases = make(map[string]*Database, len(data.Databases))
	for name, docs := range data.Databases {
		db := newDatabase(name)
		for id, doc := range docs {
			if doc == nil {
				continue
			}
			if doc.Indexes == nil {
				doc.Indexes = make(map[string]domain.IndexEntry)
			}
			db.docs[id] = doc
			for _, idx := range doc.Indexes {
				se.observeSequence(idx.Seq)
			}
		}
		se.databases[name] = db
	}
	se.lastLSN = data.LSN
}

func writeSnapshotFile(filename string, data *SnapshotData) error {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, data); err != nil {
		return err
	}

	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

func readSnapshotFile(filename string) (*SnapshotData, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return DecodeSnapshot(file)
}
