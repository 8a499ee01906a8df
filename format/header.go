package format

import (
	"bytes"
	"errors"

	"github.com/google/uuid"
)

const (
	// HeaderBytes is the fixed stream header size.
	//
	//	| magic | version | flags | sections | block size | build id |
	//	| 0   3 | 4     5 | 6   7 | 8     11 | 12      15 | 16    31 |
	HeaderBytes = 32

	MagicV1          = "RFDB"
	VersionV1 uint16 = 1
)

var (
	ErrBadRegionSize = errors.New("format: region buffer too small")
	ErrBadMagic      = errors.New("format: header magic invalid")
	ErrBadVersion    = errors.New("format: header version unsupported")
	ErrBadFlags      = errors.New("format: header flags unsupported")
	ErrBadSections   = errors.New("format: header section count invalid")
)

// Header is the decoded stream header.
type Header struct {
	Version      uint16
	Flags        uint16
	SectionCount uint32
	// BlockSize is the sum of every section payload: the single allocation
	// the loader makes.
	BlockSize uint32
	BuildID   uuid.UUID
}

// StreamSize returns the exact stream length implied by the header.
func (h Header) StreamSize() uint64 {
	return HeaderBytes + uint64(h.SectionCount)*SectionHeaderBytes + uint64(h.BlockSize)
}

// EncodeHeader writes h into region.
func EncodeHeader(region []byte, h Header) error {
	if len(region) < HeaderBytes {
		return ErrBadRegionSize
	}
	if h.SectionCount > uint32(NumSections) {
		return ErrBadSections
	}
	copy(region[0:4], MagicV1)
	writeU16(region[4:6], VersionV1)
	writeU16(region[6:8], h.Flags)
	writeU32(region[8:12], h.SectionCount)
	writeU32(region[12:16], h.BlockSize)
	copy(region[16:32], h.BuildID[:])
	return nil
}

// DecodeHeader reads and checks the header at the start of region.
func DecodeHeader(region []byte) (Header, error) {
	if len(region) < HeaderBytes {
		return Header{}, ErrBadRegionSize
	}
	if !bytes.Equal(region[0:4], []byte(MagicV1)) {
		return Header{}, ErrBadMagic
	}
	var h Header
	h.Version = readU16(region[4:6])
	if h.Version != VersionV1 {
		return Header{}, ErrBadVersion
	}
	h.Flags = readU16(region[6:8])
	if h.Flags != 0 {
		return Header{}, ErrBadFlags
	}
	h.SectionCount = readU32(region[8:12])
	if h.SectionCount > uint32(NumSections) {
		return Header{}, ErrBadSections
	}
	h.BlockSize = readU32(region[12:16])
	copy(h.BuildID[:], region[16:32])
	return h, nil
}
