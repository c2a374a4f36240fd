package storage

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "GDIX"
	// Current version
	FormatVersion = 1
	// File extension for snapshot files
	FileExtension = ".gdix"
)

// Header flags
const (
	FlagCompressed uint8 = 1 << 0 // payload is an lz4 block
)

// FileHeader represents the header of a snapshot file
type FileHeader struct {
	Magic    [4]byte // "GDIX"
	Version  uint8   // Format version
	Flags    uint8
	Reserved [2]byte // Reserved for future use
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, flags uint8) error {
	header := FileHeader{
		Magic:    [4]byte{'G', 'D', 'I', 'X'},
		Version:  FormatVersion,
		Flags:    flags,
		Reserved: [2]byte{0, 0},
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}

	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// SnapshotData is the msgpack payload of a snapshot file
type SnapshotData struct {
	Databases map[string]map[string]*domain.DesignDocument `msgpack:"databases"`
	LSN       int64                                         `msgpack:"lsn"`
	Metadata  map[string]interface{}                        `msgpack:"metadata,omitempty"`
}

// NewSnapshotData creates an empty snapshot
func NewSnapshotData() *SnapshotData {
	return &SnapshotData{
		Databases: make(map[string]map[string]*domain.DesignDocument),
		Metadata:  make(map[string]interface{}),
	}
}
