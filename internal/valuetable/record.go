package valuetable

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

// recordHeaderSize is the fixed prefix written before every payload:
//
//	occupied(1) refcount(4) compressed(1) key-suffix(8) length(4) capacity(4) checksum(8)
const recordHeaderSize = 1 + 4 + 1 + 8 + 4 + 4 + 8

type recordHeader struct {
	Occupied   bool
	RefCount   uint32
	Compressed bool
	KeySuffix  [8]byte
	Length     uint32
	Capacity   uint32
	Checksum   uint64
}

func keySuffix(key kvtypes.Key) [8]byte {
	var s [8]byte
	copy(s[:], key[24:32])
	return s
}

func encodeRecordHeader(h recordHeader) []byte {
	buf := make([]byte, recordHeaderSize)
	if h.Occupied {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[1:5], h.RefCount)
	if h.Compressed {
		buf[5] = 1
	}
	copy(buf[6:14], h.KeySuffix[:])
	binary.BigEndian.PutUint32(buf[14:18], h.Length)
	binary.BigEndian.PutUint32(buf[18:22], h.Capacity)
	binary.BigEndian.PutUint64(buf[22:30], h.Checksum)
	return buf
}

func decodeRecordHeader(buf []byte) recordHeader {
	var h recordHeader
	h.Occupied = buf[0] == 1
	h.RefCount = binary.BigEndian.Uint32(buf[1:5])
	h.Compressed = buf[5] == 1
	copy(h.KeySuffix[:], buf[6:14])
	h.Length = binary.BigEndian.Uint32(buf[14:18])
	h.Capacity = binary.BigEndian.Uint32(buf[18:22])
	h.Checksum = binary.BigEndian.Uint64(buf[22:30])
	return h
}

// checksum is a fast, non-cryptographic integrity check over a payload,
// independent of the record's own compressed/plaintext decode path (see
// SPEC_FULL.md DOMAIN STACK: xxh3 fills the role folio's hash.go shows
// for fast hashing, repurposed here for corruption detection).
func checksum(payload []byte) uint64 {
	return xxh3.Hash(payload)
}
