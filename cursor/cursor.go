// Package cursor provides a fixed capacity byte region with an independent
// read/write position.
//
// The same cursor type is used to produce a database stream and to walk the
// loaded block during fixup. All multi-byte values are little endian and no
// padding is ever inserted.
package cursor

import (
	"errors"
	"math"
)

var (
	ErrOutOfBounds = errors.New("cursor: write exceeds capacity")
	ErrUnderrun    = errors.New("cursor: read past end of buffer")
	ErrOutOfRange  = errors.New("cursor: seek position out of range")
)

// Cursor is a byte region of fixed capacity and a position within it.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	data []byte
	pos  int
}

// New allocates a zero filled region of size bytes.
func New(size int) *Cursor {
	return &Cursor{data: make([]byte, size)}
}

// Wrap uses buf as the region. The cursor starts at 0 and buf is not copied.
func Wrap(buf []byte) *Cursor {
	return &Cursor{data: buf}
}

// Reset moves the cursor to the start. Contents are left as they are and
// should be treated as undefined until written.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Position returns the current cursor position.
func (c *Cursor) Position() int { return c.pos }

// Len returns the capacity of the region.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of bytes between the cursor and the end.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Bytes returns the whole region.
func (c *Cursor) Bytes() []byte { return c.data }

// Write copies p to the cursor and advances past it.
func (c *Cursor) Write(p []byte) error {
	if len(p) > len(c.data)-c.pos {
		return ErrOutOfBounds
	}
	c.pos += copy(c.data[c.pos:], p)
	return nil
}

// WriteAt copies p to the absolute position pos. The cursor does not move.
func (c *Cursor) WriteAt(p []byte, pos int) error {
	if pos < 0 || pos > len(c.data) || len(p) > len(c.data)-pos {
		return ErrOutOfBounds
	}
	copy(c.data[pos:], p)
	return nil
}

// Read fills p from the cursor and advances past the bytes read.
func (c *Cursor) Read(p []byte) error {
	if len(p) > len(c.data)-c.pos {
		return ErrUnderrun
	}
	c.pos += copy(p, c.data[c.pos:])
	return nil
}

// ReadAt returns a view of the region starting at pos. Nothing is copied and
// the caller must not read beyond the end of the region.
func (c *Cursor) ReadAt(pos int) []byte {
	return c.data[pos:]
}

// SeekAbs moves the cursor to pos.
func (c *Cursor) SeekAbs(pos int) error {
	return c.seek(pos)
}

// SeekRel moves the cursor by delta bytes.
func (c *Cursor) SeekRel(delta int) error {
	return c.seek(c.pos + delta)
}

// SeekEnd moves the cursor to delta bytes from the end. delta is usually
// zero or negative.
func (c *Cursor) SeekEnd(delta int) error {
	return c.seek(len(c.data) + delta)
}

func (c *Cursor) seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return ErrOutOfRange
	}
	c.pos = pos
	return nil
}

func (c *Cursor) WriteU8(v uint8) error {
	return c.Write([]byte{v})
}

func (c *Cursor) WriteU16(v uint16) error {
	var b [2]byte
	writeU16(b[:], v)
	return c.Write(b[:])
}

func (c *Cursor) WriteU32(v uint32) error {
	var b [4]byte
	writeU32(b[:], v)
	return c.Write(b[:])
}

func (c *Cursor) WriteI32(v int32) error {
	return c.WriteU32(uint32(v))
}

func (c *Cursor) WriteF32(v float32) error {
	return c.WriteU32(math.Float32bits(v))
}

// WriteZeros advances the cursor by n bytes, clearing them.
func (c *Cursor) WriteZeros(n int) error {
	if n > len(c.data)-c.pos {
		return ErrOutOfBounds
	}
	clear(c.data[c.pos : c.pos+n])
	c.pos += n
	return nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	var b [1]byte
	if err := c.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	var b [2]byte
	if err := c.Read(b[:]); err != nil {
		return 0, err
	}
	return readU16(b[:]), nil
}

func (c *Cursor) ReadU32() (uint32, error) {
	var b [4]byte
	if err := c.Read(b[:]); err != nil {
		return 0, err
	}
	return readU32(b[:]), nil
}

// U32At reads the value at pos without moving the cursor.
// Like ReadAt, it is not bounds checked beyond the slice check.
func (c *Cursor) U32At(pos int) uint32 {
	return readU32(c.data[pos : pos+4])
}

// PutU32At overwrites the value at pos without moving the cursor.
func (c *Cursor) PutU32At(pos int, v uint32) error {
	var b [4]byte
	writeU32(b[:], v)
	return c.WriteAt(b[:], pos)
}
