package native

import (
	"encoding/binary"
	"fmt"
)

// nodeRecordFixedSize is the portion of a node record preceding its four
// variable-length fields (id, flags, counts, and the four length prefixes).
const nodeRecordFixedSize = 8 + 4 + 4 + 4 + 2 + 2 + 2 + 4

// nodeFlagDeleted marks a record as tombstoned in place; deleted records are
// skipped on scan and their space is never reclaimed (spec §4.3: deletes are
// rare and reindexing is the reclaim path, not per-delete compaction).
const nodeFlagDeleted uint32 = 1 << 0

// nodeRecord is the on-disk encoding of a graph.Node.
type nodeRecord struct {
	ID            int64
	Flags         uint32
	OutgoingCount uint32
	IncomingCount uint32
	Kind          string
	Name          string
	FilePath      string
	Data          []byte
}

func (r *nodeRecord) deleted() bool { return r.Flags&nodeFlagDeleted != 0 }

// size returns the total encoded length of r.
func (r *nodeRecord) size() uint32 {
	return uint32(nodeRecordFixedSize + len(r.Kind) + len(r.Name) + len(r.FilePath) + len(r.Data))
}

// encode serializes r to its on-disk byte representation.
func (r *nodeRecord) encode() []byte {
	buf := make([]byte, r.size())
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.ID))
	binary.BigEndian.PutUint32(buf[8:12], r.Flags)
	binary.BigEndian.PutUint32(buf[12:16], r.OutgoingCount)
	binary.BigEndian.PutUint32(buf[16:20], r.IncomingCount)
	binary.BigEndian.PutUint16(buf[20:22], uint16(len(r.Kind)))
	binary.BigEndian.PutUint16(buf[22:24], uint16(len(r.Name)))
	binary.BigEndian.PutUint16(buf[24:26], uint16(len(r.FilePath)))
	binary.BigEndian.PutUint32(buf[26:30], uint32(len(r.Data)))

	off := nodeRecordFixedSize
	off += copy(buf[off:], r.Kind)
	off += copy(buf[off:], r.Name)
	off += copy(buf[off:], r.FilePath)
	copy(buf[off:], r.Data)
	return buf
}

// decodeNodeRecord parses a node record out of buf, which must contain at
// least the fixed header; the caller is responsible for having read enough
// bytes to cover the variable tail (see mustReadFull and nodeStore.get).
func decodeNodeRecord(buf []byte) (*nodeRecord, error) {
	if len(buf) < nodeRecordFixedSize {
		return nil, &Error{Code: ErrCorruptNodeRecord, Message: "record shorter than fixed header"}
	}
	r := &nodeRecord{
		ID:            int64(binary.BigEndian.Uint64(buf[0:8])),
		Flags:         binary.BigEndian.Uint32(buf[8:12]),
		OutgoingCount: binary.BigEndian.Uint32(buf[12:16]),
		IncomingCount: binary.BigEndian.Uint32(buf[16:20]),
	}
	kindLen := binary.BigEndian.Uint16(buf[20:22])
	nameLen := binary.BigEndian.Uint16(buf[22:24])
	pathLen := binary.BigEndian.Uint16(buf[24:26])
	dataLen := binary.BigEndian.Uint32(buf[26:30])

	want := nodeRecordFixedSize + int(kindLen) + int(nameLen) + int(pathLen) + int(dataLen)
	if len(buf) < want {
		return nil, &Error{Code: ErrCorruptNodeRecord, Message: fmt.Sprintf("node %d: expected %d bytes, have %d", r.ID, want, len(buf))}
	}

	off := nodeRecordFixedSize
	r.Kind = string(buf[off : off+int(kindLen)])
	off += int(kindLen)
	r.Name = string(buf[off : off+int(nameLen)])
	off += int(nameLen)
	r.FilePath = string(buf[off : off+int(pathLen)])
	off += int(pathLen)
	r.Data = append([]byte(nil), buf[off:off+int(dataLen)]...)
	return r, nil
}

// nodeStore manages node records appended past the file's node section,
// keeping an in-memory id -> (offset, size) index rebuilt on open by a
// linear scan (spec §4.3).
type nodeStore struct {
	f       *file
	index   map[int64]nodeLocation
	nextID  int64
	writeAt uint64 // next free offset for appending a new record
}

type nodeLocation struct {
	offset uint64
	size   uint32
}

func newNodeStore(f *file) *nodeStore {
	return newNodeStoreWithHint(f, 0)
}

// newNodeStoreWithHint pre-sizes the index map to capacityHint entries,
// avoiding repeated map growth when the caller knows roughly how many
// nodes a large graph holds (spec §6 native capacity hints).
func newNodeStoreWithHint(f *file, capacityHint int) *nodeStore {
	return &nodeStore{
		f:       f,
		index:   make(map[int64]nodeLocation, capacityHint),
		nextID:  1,
		writeAt: f.header.NodeDataOffset,
	}
}

// scan rebuilds the index by walking every record from the node section up
// to edgeDataOffset (or file end, whichever governs — the node section may
// have grown past its original reservation).
func (s *nodeStore) scan(sectionEnd uint64) error {
	size, err := s.f.fileSize()
	if err != nil {
		return err
	}
	if size < sectionEnd {
		sectionEnd = size
	}
	offset := s.f.header.NodeDataOffset
	for offset < sectionEnd {
		head := make([]byte, nodeRecordFixedSize)
		if err := s.f.readBytes(offset, head); err != nil {
			return err
		}
		if isZero(head) {
			break // unwritten tail of the pre-reserved section
		}
		rec, err := decodeNodeRecord(mustReadFull(s.f, offset, head))
		if err != nil {
			return err
		}
		size := rec.size()
		if !rec.deleted() {
			s.index[rec.ID] = nodeLocation{offset: offset, size: size}
		}
		if rec.ID >= s.nextID {
			s.nextID = rec.ID + 1
		}
		offset += uint64(size)
	}
	s.writeAt = offset
	return nil
}

// mustReadFull re-reads head plus the variable tail once the fixed header
// reveals how long the full record is.
func mustReadFull(f *file, offset uint64, head []byte) []byte {
	kindLen := binary.BigEndian.Uint16(head[20:22])
	nameLen := binary.BigEndian.Uint16(head[22:24])
	pathLen := binary.BigEndian.Uint16(head[24:26])
	dataLen := binary.BigEndian.Uint32(head[26:30])
	total := nodeRecordFixedSize + int(kindLen) + int(nameLen) + int(pathLen) + int(dataLen)
	buf := make([]byte, total)
	copy(buf, head)
	if total > len(head) {
		_ = f.readBytes(offset+uint64(len(head)), buf[len(head):])
	}
	return buf
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// insert appends rec (assigning an id if rec.ID == 0), growing the file if
// the node section has run out of reserved space.
func (s *nodeStore) insert(rec *nodeRecord) (int64, error) {
	if rec.ID == 0 {
		rec.ID = s.nextID
		s.nextID++
	} else if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}

	encoded := rec.encode()
	needed := s.writeAt + uint64(len(encoded))
	size, err := s.f.fileSize()
	if err != nil {
		return 0, err
	}
	if needed > size {
		if err := s.f.grow(needed - size); err != nil {
			return 0, err
		}
	}
	if err := s.f.writeBytes(s.writeAt, encoded); err != nil {
		return 0, err
	}
	s.index[rec.ID] = nodeLocation{offset: s.writeAt, size: uint32(len(encoded))}
	s.writeAt += uint64(len(encoded))
	return rec.ID, nil
}

// get reads and decodes the record for id.
func (s *nodeStore) get(id int64) (*nodeRecord, error) {
	loc, ok := s.index[id]
	if !ok {
		return nil, &Error{Code: ErrInvalidNodeID, Message: fmt.Sprintf("node %d not found", id)}
	}
	buf := make([]byte, loc.size)
	if err := s.f.readBytes(loc.offset, buf); err != nil {
		return nil, err
	}
	return decodeNodeRecord(buf)
}

// updateCounts rewrites counters in place without reallocating the record, since
// OutgoingCount/IncomingCount never change the record's encoded length.
func (s *nodeStore) updateCounts(id int64, outDelta, inDelta int32) error {
	loc, ok := s.index[id]
	if !ok {
		return &Error{Code: ErrInvalidNodeID, Message: fmt.Sprintf("node %d not found", id)}
	}
	buf := make([]byte, 8)
	if err := s.f.readBytes(loc.offset+12, buf[:4]); err != nil {
		return err
	}
	if err := s.f.readBytes(loc.offset+16, buf[4:]); err != nil {
		return err
	}
	out := int32(binary.BigEndian.Uint32(buf[:4])) + outDelta
	in := int32(binary.BigEndian.Uint32(buf[4:])) + inDelta
	var out32, in32 [4]byte
	binary.BigEndian.PutUint32(out32[:], uint32(out))
	binary.BigEndian.PutUint32(in32[:], uint32(in))
	if err := s.f.writeBytes(loc.offset+12, out32[:]); err != nil {
		return err
	}
	return s.f.writeBytes(loc.offset+16, in32[:])
}

// delete tombstones the record for id in place.
func (s *nodeStore) delete(id int64) error {
	loc, ok := s.index[id]
	if !ok {
		return &Error{Code: ErrInvalidNodeID, Message: fmt.Sprintf("node %d not found", id)}
	}
	var flagBuf [4]byte
	binary.BigEndian.PutUint32(flagBuf[:], nodeFlagDeleted)
	if err := s.f.writeBytes(loc.offset+8, flagBuf[:]); err != nil {
		return err
	}
	delete(s.index, id)
	return nil
}

// all returns every live node id in ascending order.
func (s *nodeStore) all() []int64 {
	ids := make([]int64, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	sortInt64s(ids)
	return ids
}

func (s *nodeStore) count() int { return len(s.index) }
