package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorWriteReadRoundTrip(t *testing.T) {
	c := New(16)

	require.NoError(t, c.WriteU32(0xDEADBEEF))
	require.NoError(t, c.WriteU16(0x1234))
	require.NoError(t, c.WriteU8(7))
	require.NoError(t, c.WriteI32(-5))
	require.Equal(t, 11, c.Position())

	c.Reset()
	v32, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v32)
	v16, err := c.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v16)
	v8, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), v8)
	neg, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, int32(-5), int32(neg))

	// little endian on the wire
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, c.Bytes()[:4])
}

func TestCursorWriteOutOfBounds(t *testing.T) {
	c := New(4)
	require.NoError(t, c.Write([]byte{1, 2, 3}))
	require.ErrorIs(t, c.Write([]byte{4, 5}), ErrOutOfBounds)
	// a failed write does not move the cursor
	assert.Equal(t, 3, c.Position())
	require.NoError(t, c.Write([]byte{4}))
	require.ErrorIs(t, c.WriteU8(0), ErrOutOfBounds)
}

func TestCursorWriteAtDoesNotMove(t *testing.T) {
	c := New(8)
	require.NoError(t, c.WriteU32(1))
	require.NoError(t, c.WriteAt([]byte{9, 9}, 6))
	assert.Equal(t, 4, c.Position())
	assert.Equal(t, []byte{9, 9}, c.ReadAt(6))

	require.ErrorIs(t, c.WriteAt([]byte{1, 2, 3}, 6), ErrOutOfBounds)
	require.ErrorIs(t, c.WriteAt([]byte{1}, -1), ErrOutOfBounds)

	require.NoError(t, c.PutU32At(0, 0xAABBCCDD))
	assert.Equal(t, uint32(0xAABBCCDD), c.U32At(0))
	assert.Equal(t, 4, c.Position())
}

func TestCursorReadUnderrun(t *testing.T) {
	c := Wrap([]byte{1, 2, 3})
	buf := make([]byte, 2)
	require.NoError(t, c.Read(buf))
	assert.Equal(t, []byte{1, 2}, buf)
	require.ErrorIs(t, c.Read(buf), ErrUnderrun)
	_, err := c.ReadU32()
	require.ErrorIs(t, err, ErrUnderrun)
}

func TestCursorSeek(t *testing.T) {
	tests := []struct {
		name    string
		seek    func(c *Cursor) error
		want    int
		wantErr bool
	}{
		{name: "abs start", seek: func(c *Cursor) error { return c.SeekAbs(0) }, want: 0},
		{name: "abs end", seek: func(c *Cursor) error { return c.SeekAbs(10) }, want: 10},
		{name: "abs past end", seek: func(c *Cursor) error { return c.SeekAbs(11) }, wantErr: true},
		{name: "abs negative", seek: func(c *Cursor) error { return c.SeekAbs(-1) }, wantErr: true},
		{name: "rel forward", seek: func(c *Cursor) error { return c.SeekRel(3) }, want: 7},
		{name: "rel back", seek: func(c *Cursor) error { return c.SeekRel(-4) }, want: 0},
		{name: "rel before start", seek: func(c *Cursor) error { return c.SeekRel(-5) }, wantErr: true},
		{name: "end", seek: func(c *Cursor) error { return c.SeekEnd(0) }, want: 10},
		{name: "end back", seek: func(c *Cursor) error { return c.SeekEnd(-2) }, want: 8},
		{name: "end forward", seek: func(c *Cursor) error { return c.SeekEnd(1) }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10)
			require.NoError(t, c.SeekAbs(4))
			err := tt.seek(c)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutOfRange)
				assert.Equal(t, 4, c.Position())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Position())
		})
	}
}

func TestCursorWriteZeros(t *testing.T) {
	c := Wrap([]byte{1, 1, 1, 1})
	require.NoError(t, c.SeekAbs(1))
	require.NoError(t, c.WriteZeros(2))
	assert.Equal(t, []byte{1, 0, 0, 1}, c.Bytes())
	require.ErrorIs(t, c.WriteZeros(2), ErrOutOfBounds)
}
