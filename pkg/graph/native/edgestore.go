package native

import (
	"encoding/binary"
	"fmt"
)

// edgeSlotSize is the fixed size of every edge slot. Edges are small,
// fixed-shape records (two endpoints, a type, small JSON data), so unlike
// nodes they get a flat slot array instead of a variable-length log — slot
// index doubles as a stable, density-friendly on-disk id (original_source's
// edge_store.rs makes the same trade).
const edgeSlotSize = 256

// edgeRecordFixedSize is the portion of an edge record preceding its two
// variable-length fields.
const edgeRecordFixedSize = 8 + 8 + 8 + 4 + 2 + 4

const edgeFlagDeleted uint32 = 1 << 0

type edgeRecord struct {
	ID       int64
	From     int64
	To       int64
	Flags    uint32
	EdgeType string
	Data     []byte
}

func (r *edgeRecord) deleted() bool { return r.Flags&edgeFlagDeleted != 0 }

func (r *edgeRecord) encode() ([]byte, error) {
	content := edgeRecordFixedSize + len(r.EdgeType) + len(r.Data)
	if content > edgeSlotSize {
		return nil, &Error{Code: ErrRecordTooLarge, Message: fmt.Sprintf("edge %d: %d bytes exceeds %d byte slot", r.ID, content, edgeSlotSize)}
	}
	buf := make([]byte, edgeSlotSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.ID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(r.From))
	binary.BigEndian.PutUint64(buf[16:24], uint64(r.To))
	binary.BigEndian.PutUint32(buf[24:28], r.Flags)
	binary.BigEndian.PutUint16(buf[28:30], uint16(len(r.EdgeType)))
	binary.BigEndian.PutUint32(buf[30:34], uint32(len(r.Data)))

	off := edgeRecordFixedSize
	off += copy(buf[off:], r.EdgeType)
	copy(buf[off:], r.Data)
	return buf, nil
}

func decodeEdgeRecord(buf []byte) (*edgeRecord, error) {
	if len(buf) < edgeRecordFixedSize {
		return nil, &Error{Code: ErrCorruptEdgeRecord, Message: "slot shorter than fixed header"}
	}
	r := &edgeRecord{
		ID:    int64(binary.BigEndian.Uint64(buf[0:8])),
		From:  int64(binary.BigEndian.Uint64(buf[8:16])),
		To:    int64(binary.BigEndian.Uint64(buf[16:24])),
		Flags: binary.BigEndian.Uint32(buf[24:28]),
	}
	typeLen := binary.BigEndian.Uint16(buf[28:30])
	dataLen := binary.BigEndian.Uint32(buf[30:34])
	want := edgeRecordFixedSize + int(typeLen) + int(dataLen)
	if want > len(buf) {
		return nil, &Error{Code: ErrCorruptEdgeRecord, Message: fmt.Sprintf("edge %d: declared lengths overflow slot", r.ID)}
	}
	off := edgeRecordFixedSize
	r.EdgeType = string(buf[off : off+int(typeLen)])
	off += int(typeLen)
	r.Data = append([]byte(nil), buf[off:off+int(dataLen)]...)
	return r, nil
}

// edgeStore manages fixed-size edge slots and an edge id -> slot index
// (spec §4.4); the adjacency index lives on Engine, which scan feeds
// through its onLive callback.
type edgeStore struct {
	f        *file
	index    map[int64]uint64 // edge id -> slot offset
	nextID   int64
	nextSlot uint64
}

func newEdgeStore(f *file) *edgeStore {
	return newEdgeStoreWithHint(f, 0)
}

// newEdgeStoreWithHint pre-sizes the index map to capacityHint entries
// (spec §6 native capacity hints).
func newEdgeStoreWithHint(f *file, capacityHint int) *edgeStore {
	return &edgeStore{
		f:        f,
		index:    make(map[int64]uint64, capacityHint),
		nextID:   1,
		nextSlot: f.header.EdgeDataOffset,
	}
}

// scan rebuilds the edge index by reading slots until size bytes are
// exhausted, calling onLive for every non-deleted record found so the
// caller (engine) can rebuild its adjacency maps in the same pass.
func (s *edgeStore) scan(sizeBytes uint64, onLive func(*edgeRecord)) error {
	offset := s.f.header.EdgeDataOffset
	for offset+edgeSlotSize <= sizeBytes {
		buf := make([]byte, edgeSlotSize)
		if err := s.f.readBytes(offset, buf); err != nil {
			return err
		}
		if isZero(buf) {
			break
		}
		rec, err := decodeEdgeRecord(buf)
		if err != nil {
			return err
		}
		if !rec.deleted() {
			s.index[rec.ID] = offset
			onLive(rec)
		}
		if rec.ID >= s.nextID {
			s.nextID = rec.ID + 1
		}
		offset += edgeSlotSize
	}
	s.nextSlot = offset
	return nil
}

func (s *edgeStore) insert(rec *edgeRecord) (int64, error) {
	if rec.ID == 0 {
		rec.ID = s.nextID
		s.nextID++
	} else if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}
	encoded, err := rec.encode()
	if err != nil {
		return 0, err
	}
	needed := s.nextSlot + edgeSlotSize
	size, err := s.f.fileSize()
	if err != nil {
		return 0, err
	}
	if needed > size {
		if err := s.f.grow(needed - size); err != nil {
			return 0, err
		}
	}
	if err := s.f.writeBytes(s.nextSlot, encoded); err != nil {
		return 0, err
	}
	s.index[rec.ID] = s.nextSlot
	s.nextSlot += edgeSlotSize
	return rec.ID, nil
}

func (s *edgeStore) get(id int64) (*edgeRecord, error) {
	offset, ok := s.index[id]
	if !ok {
		return nil, &Error{Code: ErrInvalidEdgeID, Message: fmt.Sprintf("edge %d not found", id)}
	}
	buf := make([]byte, edgeSlotSize)
	if err := s.f.readBytes(offset, buf); err != nil {
		return nil, err
	}
	return decodeEdgeRecord(buf)
}

func (s *edgeStore) delete(id int64) error {
	offset, ok := s.index[id]
	if !ok {
		return &Error{Code: ErrInvalidEdgeID, Message: fmt.Sprintf("edge %d not found", id)}
	}
	var flagBuf [4]byte
	binary.BigEndian.PutUint32(flagBuf[:], edgeFlagDeleted)
	if err := s.f.writeBytes(offset+24, flagBuf[:]); err != nil {
		return err
	}
	delete(s.index, id)
	return nil
}

func (s *edgeStore) count() int { return len(s.index) }
