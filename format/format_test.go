package format

import (
	"testing"

	"github.com/forestrie/go-reflectdb/cursor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	id := uuid.New()
	region := make([]byte, HeaderBytes)
	require.NoError(t, EncodeHeader(region, Header{SectionCount: 5, BlockSize: 1234, BuildID: id}))

	h, err := DecodeHeader(region)
	require.NoError(t, err)
	assert.Equal(t, VersionV1, h.Version)
	assert.Equal(t, uint32(5), h.SectionCount)
	assert.Equal(t, uint32(1234), h.BlockSize)
	assert.Equal(t, id, h.BuildID)
	assert.Equal(t, uint64(HeaderBytes+5*SectionHeaderBytes+1234), h.StreamSize())
}

func TestHeaderRejects(t *testing.T) {
	good := make([]byte, HeaderBytes)
	require.NoError(t, EncodeHeader(good, Header{SectionCount: 2}))

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
		want   error
	}{
		{name: "short", mutate: func(b []byte) []byte { return b[:HeaderBytes-1] }, want: ErrBadRegionSize},
		{name: "magic", mutate: func(b []byte) []byte { b[0] = 'X'; return b }, want: ErrBadMagic},
		{name: "version", mutate: func(b []byte) []byte { b[4] = 9; return b }, want: ErrBadVersion},
		{name: "flags", mutate: func(b []byte) []byte { b[6] = 1; return b }, want: ErrBadFlags},
		{name: "sections", mutate: func(b []byte) []byte { b[8] = 0xFF; return b }, want: ErrBadSections},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := append([]byte{}, good...)
			_, err := DecodeHeader(tt.mutate(b))
			require.ErrorIs(t, err, tt.want)
		})
	}

	require.ErrorIs(t, EncodeHeader(make([]byte, 4), Header{}), ErrBadRegionSize)
}

func TestSectionHeaderRoundTrip(t *testing.T) {
	c := cursor.New(SectionHeaderBytes)
	want := SectionHeader{Section: SectionClasses, Count: 3, ByteLen: 3 * ClassBytes}
	require.NoError(t, WriteSectionHeader(c, want))

	c.Reset()
	got, err := ReadSectionHeader(c)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	c = cursor.New(SectionHeaderBytes)
	require.NoError(t, WriteSectionHeader(c, SectionHeader{Section: NumSections}))
	c.Reset()
	_, err = ReadSectionHeader(c)
	require.ErrorIs(t, err, ErrSectionUnknown)

	_, err = ReadSectionHeader(cursor.New(SectionHeaderBytes - 1))
	require.ErrorIs(t, err, cursor.ErrUnderrun)
}

func TestLayoutsFitRecords(t *testing.T) {
	for k := KindFlagAttribute; k < kindCount; k++ {
		size := RecordBytes(k)
		require.NotZero(t, size, k.String())
		l := Layout(k)
		for _, p := range l.Pointers {
			assert.LessOrEqual(t, p.Off+4, size, k.String())
		}
		for _, a := range l.Arrays {
			assert.LessOrEqual(t, a.Off+ArrayBytes, size, k.String())
		}
		for _, b := range l.Blobs {
			assert.LessOrEqual(t, b.Off+4, size, k.String())
			assert.True(t, b.Blob.IsBlob())
		}
		// every record carries the base parent pointer
		require.NotEmpty(t, l.Pointers, k.String())
		assert.Equal(t, uint32(OffParent), l.Pointers[0].Off)
	}
}

func TestSectionKindMapping(t *testing.T) {
	assert.Equal(t, SectionClasses, SectionForKind(KindClass))
	assert.Equal(t, SectionNamespaces, SectionForKind(KindNamespace))
	assert.Equal(t, SectionNone, SectionForKind(KindAttribute))
	assert.Equal(t, KindNamespace, SectionGlobal.RecordKind())
	assert.Equal(t, uint32(NamespaceBytes), SectionGlobal.Stride())
	assert.Equal(t, uint32(1), SectionNameText.Stride())
	assert.Equal(t, uint32(RefBytes), SectionTypeIndex.Stride())
	assert.Equal(t, "classes", SectionClasses.String())
	assert.Equal(t, "unknown", NumSections.String())
}

func TestKindSets(t *testing.T) {
	assert.True(t, TypeFamily.Has(KindClass))
	assert.False(t, TypeFamily.Has(KindField))
	assert.True(t, AttributeFamily.Has(KindTextAttribute))
	assert.False(t, AnyPrimitive.Has(KindNone))
	assert.False(t, AnyPrimitive.Has(KindAttribute))
	assert.False(t, KindAttribute.Valid())
	assert.True(t, KindNamespace.Valid())
	assert.Equal(t, FlagTransient, FlagBit("transient"))
	assert.Equal(t, uint32(0), FlagBit("serialise"))
}
