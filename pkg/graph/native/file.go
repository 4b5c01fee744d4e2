// Package native implements the purpose-built on-disk graph file format
// (spec §4.2-§4.5): a fixed 64-byte header, variable-length node records,
// fixed 256-byte edge slots, and an in-memory adjacency iterator.
//
// The on-disk layout is specified byte-for-byte (magic, version, checksum,
// exact field offsets) because robustness tests corrupt specific bytes and
// expect specific failures; that rules out an existing embedded KV store
// (see DESIGN.md) and is why this package talks to *os.File directly with
// encoding/binary rather than through a library.
package native

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

const (
	// magic identifies the file format: "SQLTGF" + NUL, 8 bytes total
	// once padded, per original_source/sqlitegraph/src/backend/native/types.rs.
	magicString = "SQLTGF\x00"

	// formatVersion is the only version this package writes or accepts.
	formatVersion uint32 = 1

	// headerSize is the fixed on-disk size of the header (spec §3).
	headerSize = 64

	// nodeReservationBytes pre-reserves space for node records so the
	// edge section can start at a fixed offset; it is never a hard cap —
	// node records may be appended past it, growing the file.
	nodeReservationBytes = 4096 * 256
)

var magicBytes = [8]byte{'S', 'Q', 'L', 'T', 'G', 'F', 0, 0}

// header is the 64-byte fixed structure at the start of every native graph
// file (spec §3). All integers are big-endian on disk.
type header struct {
	Magic          [8]byte
	Version        uint32
	Flags          uint32
	NodeCount      uint64
	EdgeCount      uint64
	SchemaVersion  uint64
	NodeDataOffset uint64
	EdgeDataOffset uint64
	Checksum       uint64
}

func newHeader() header {
	h := header{
		Magic:          magicBytes,
		Version:        formatVersion,
		NodeDataOffset: headerSize,
	}
	h.EdgeDataOffset = h.NodeDataOffset + nodeReservationBytes
	h.updateChecksum()
	return h
}

// encode writes h to a 64-byte big-endian buffer.
func (h *header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], h.Magic[:])
	binary.BigEndian.PutUint32(buf[8:12], h.Version)
	binary.BigEndian.PutUint32(buf[12:16], h.Flags)
	binary.BigEndian.PutUint64(buf[16:24], h.NodeCount)
	binary.BigEndian.PutUint64(buf[24:32], h.EdgeCount)
	binary.BigEndian.PutUint64(buf[32:40], h.SchemaVersion)
	binary.BigEndian.PutUint64(buf[40:48], h.NodeDataOffset)
	binary.BigEndian.PutUint64(buf[48:56], h.EdgeDataOffset)
	binary.BigEndian.PutUint64(buf[56:64], h.Checksum)
	return buf
}

// decodeHeader parses a 64-byte buffer into a header, validating magic,
// version, and checksum. Errors are native-specific, mapped to graph.Kind
// by the caller at the Backend boundary.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, &Error{Code: ErrFileTooSmall, Message: fmt.Sprintf("header requires %d bytes, got %d", headerSize, len(buf))}
	}
	var h header
	copy(h.Magic[:], buf[0:8])
	if h.Magic != magicBytes {
		return header{}, &Error{Code: ErrInvalidMagic, Message: fmt.Sprintf("expected magic %q, found %q", magicBytes, h.Magic)}
	}
	h.Version = binary.BigEndian.Uint32(buf[8:12])
	if h.Version != formatVersion {
		return header{}, &Error{Code: ErrUnsupportedVersion, Message: fmt.Sprintf("unsupported version %d (supported: %d)", h.Version, formatVersion)}
	}
	h.Flags = binary.BigEndian.Uint32(buf[12:16])
	h.NodeCount = binary.BigEndian.Uint64(buf[16:24])
	h.EdgeCount = binary.BigEndian.Uint64(buf[24:32])
	h.SchemaVersion = binary.BigEndian.Uint64(buf[32:40])
	h.NodeDataOffset = binary.BigEndian.Uint64(buf[40:48])
	h.EdgeDataOffset = binary.BigEndian.Uint64(buf[48:56])
	h.Checksum = binary.BigEndian.Uint64(buf[56:64])

	expected := h.computeChecksum()
	if expected != h.Checksum {
		return header{}, &Error{Code: ErrInvalidChecksum, Message: fmt.Sprintf("expected checksum %016x, found %016x", expected, h.Checksum)}
	}
	return h, nil
}

// computeChecksum XORs the big-endian bytes of every field preceding the
// checksum field itself.
func (h *header) computeChecksum() uint64 {
	buf := make([]byte, 56)
	copy(buf[0:8], h.Magic[:])
	binary.BigEndian.PutUint32(buf[8:12], h.Version)
	binary.BigEndian.PutUint32(buf[12:16], h.Flags)
	binary.BigEndian.PutUint64(buf[16:24], h.NodeCount)
	binary.BigEndian.PutUint64(buf[24:32], h.EdgeCount)
	binary.BigEndian.PutUint64(buf[32:40], h.SchemaVersion)
	binary.BigEndian.PutUint64(buf[40:48], h.NodeDataOffset)
	binary.BigEndian.PutUint64(buf[48:56], h.EdgeDataOffset)

	var sum uint64
	for i := 0; i < len(buf); i += 8 {
		sum ^= binary.BigEndian.Uint64(buf[i : i+8])
	}
	return sum
}

func (h *header) updateChecksum() {
	h.Checksum = h.computeChecksum()
}

// file wraps an *os.File and its in-memory header, providing the byte-level
// primitives the node and edge stores build on (spec §4.2).
type file struct {
	mu     sync.RWMutex
	handle *os.File
	header header
	path   string
}

// createFile creates a new native graph file at path, writing an initial
// header with zero counts.
func createFile(path string) (*file, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	gf := &file{handle: f, header: newHeader(), path: path}
	if err := gf.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return gf, nil
}

// openFile opens an existing native graph file, reading and validating its
// header.
func openFile(path string) (*file, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	gf := &file{handle: f, path: path}
	if err := gf.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := gf.validateFileSize(); err != nil {
		f.Close()
		return nil, err
	}
	return gf, nil
}

func (f *file) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := f.handle.ReadAt(buf, 0); err != nil {
		return err
	}
	h, err := decodeHeader(buf)
	if err != nil {
		return err
	}
	f.header = h
	return nil
}

func (f *file) writeHeader() error {
	f.header.updateChecksum()
	_, err := f.handle.WriteAt(f.header.encode(), 0)
	return err
}

// readBytes reads len(buf) bytes starting at offset.
func (f *file) readBytes(offset uint64, buf []byte) error {
	_, err := f.handle.ReadAt(buf, int64(offset))
	return err
}

// writeBytes writes buf starting at offset.
func (f *file) writeBytes(offset uint64, buf []byte) error {
	_, err := f.handle.WriteAt(buf, int64(offset))
	return err
}

// fileSize returns the current size of the underlying file.
func (f *file) fileSize() (uint64, error) {
	info, err := f.handle.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// grow extends the file by additionalBytes beyond its current size.
func (f *file) grow(additionalBytes uint64) error {
	if additionalBytes == 0 {
		return nil
	}
	size, err := f.fileSize()
	if err != nil {
		return err
	}
	return f.handle.Truncate(int64(size + additionalBytes))
}

// flush is a no-op placeholder for buffered writers; os.File writes are
// unbuffered, so flush only exists to mirror the spec's named operation.
func (f *file) flush() error { return nil }

// sync fsyncs the underlying file.
func (f *file) sync() error { return f.handle.Sync() }

// validateFileSize requires the file to be at least large enough for the
// header and all records already declared (spec §4.2, restored from
// original_source/sqlitegraph/src/backend/native/graph_file.rs). edge_data_offset
// is a reservation and is only required once at least one edge exists.
func (f *file) validateFileSize() error {
	size, err := f.fileSize()
	if err != nil {
		return err
	}
	if size < headerSize {
		return &Error{Code: ErrFileTooSmall, Message: fmt.Sprintf("%d bytes (minimum %d bytes required)", size, headerSize)}
	}
	minExpected := f.header.NodeDataOffset
	if f.header.EdgeCount > 0 && f.header.EdgeDataOffset > minExpected {
		minExpected = f.header.EdgeDataOffset
	}
	if size < minExpected {
		return &Error{Code: ErrFileTooSmall, Message: fmt.Sprintf("%d bytes (minimum %d bytes required)", size, minExpected)}
	}
	return nil
}

// close writes the header and syncs before releasing the file handle.
func (f *file) close() error {
	if err := f.writeHeader(); err != nil {
		f.handle.Close()
		return err
	}
	if err := f.sync(); err != nil {
		f.handle.Close()
		return err
	}
	return f.handle.Close()
}
