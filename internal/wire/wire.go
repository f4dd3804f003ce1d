package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("querycache: corrupt entry")
	magic4     = [...]byte{'Q', 'R', 'Y', 'C'}
)

// Entry is a stored query result plus the generations it was written under.
type Entry struct {
	ScopeGen  uint64 // endpoint-wide generation
	KeyGen    uint64 // per-key generation
	UpdatedAt time.Time
	Payload   []byte
}

// Encode frames e as:
//
//	magic(4) | ver(1) | scopeGen(u64 be) | keyGen(u64 be) | updatedAt(i64 be, unix nanos) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.ScopeGen)
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], e.KeyGen)
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(e.UpdatedAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses a framed entry. Payload aliases b.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	off := 5

	var e Entry
	e.ScopeGen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	e.KeyGen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	e.UpdatedAt = time.Unix(0, int64(binary.BigEndian.Uint64(b[off:off+8])))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off { // exact: no short payload, no trailing junk
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]
	return e, nil
}
