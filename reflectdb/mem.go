package reflectdb

import (
	"bytes"
	"encoding/binary"

	"github.com/forestrie/go-reflectdb/carray"
	"github.com/forestrie/go-reflectdb/format"
)

// span locates one section inside the block.
type span struct {
	present bool
	off     uint32
	count   uint32
	bytes   uint32
}

func (s span) end() uint32 { return s.off + s.bytes }

// DatabaseMem is the single block holding a loaded database, together with
// the location of every section in it.
//
// All records, reference arrays and text live in the block. Every pointer in
// the block is an offset from its start, so the block has no absolute
// addresses and views only need (mem, offset).
type DatabaseMem struct {
	block    []byte
	alloc    carray.Allocator[byte]
	live     bool
	sections [format.NumSections]span
	global   uint32
}

// Len returns the block size in bytes.
func (m *DatabaseMem) Len() int { return len(m.block) }

// free returns the block to its allocator. Views created from m panic after
// this.
func (m *DatabaseMem) free() {
	if !m.live {
		return
	}
	m.alloc.Free(m.block)
	m.block = nil
	m.live = false
}

func (m *DatabaseMem) bytes() []byte {
	if !m.live {
		panic("reflectdb: database closed")
	}
	return m.block
}

func (m *DatabaseMem) u32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(m.bytes()[off:])
}

func (m *DatabaseMem) u8(off uint32) uint8 {
	return m.bytes()[off]
}

// text returns a copy of the NUL terminated string at off. The loader has
// checked the terminator.
func (m *DatabaseMem) text(off uint32) string {
	if off == format.NullOffset {
		return ""
	}
	b := m.bytes()[off:]
	return string(b[:bytes.IndexByte(b, 0)])
}

// textEqual compares the stored string at off with s without copying.
func (m *DatabaseMem) textEqual(off uint32, s string) bool {
	if off == format.NullOffset {
		return s == ""
	}
	b := m.bytes()[off:]
	return string(b[:bytes.IndexByte(b, 0)]) == s
}

func (m *DatabaseMem) kindAt(off uint32) format.Kind {
	return format.Kind(m.u32(off + format.OffKind))
}

func (m *DatabaseMem) hashAt(off uint32) uint32 {
	return m.u32(off + format.OffNameHash)
}

// table is a hash sorted run of fixed width elements. For ref tables each
// element is the u32 block offset of the record holding the hash.
type table struct {
	mem     *DatabaseMem
	off     uint32
	n       uint32
	stride  uint32
	hashOff uint32
	refs    bool
}

func (m *DatabaseMem) recordTable(s format.Section) table {
	sp := m.sections[s]
	return table{mem: m, off: sp.off, n: sp.count, stride: s.Stride(), hashOff: format.OffNameHash}
}

func (m *DatabaseMem) refTable(s format.Section) table {
	sp := m.sections[s]
	return table{mem: m, off: sp.off, n: sp.count, stride: format.RefBytes, hashOff: format.OffNameHash, refs: true}
}

func (m *DatabaseMem) nameTable() table {
	sp := m.sections[format.SectionNames]
	return table{mem: m, off: sp.off, n: sp.count, stride: format.NameRecordBytes, hashOff: format.OffNameRecordHash}
}

func (t table) len() int { return int(t.n) }

// record returns the block offset of the record for element i.
func (t table) record(i int) uint32 {
	at := t.off + uint32(i)*t.stride
	if t.refs {
		return t.mem.u32(at)
	}
	return at
}

func (t table) hash(i int) uint32 {
	return t.mem.u32(t.record(i) + t.hashOff)
}

func (t table) find(hash uint32) int {
	return SearchHash(t.len(), t.hash, hash)
}

// sorted reports whether the table is ascending by hash. Equal hashes are
// allowed: overloads and same-named members share one.
func (t table) sorted() bool {
	for i := 1; i < t.len(); i++ {
		if t.hash(i) < t.hash(i-1) {
			return false
		}
	}
	return true
}
