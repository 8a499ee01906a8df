package bloom

import "github.com/forestrie/go-reflectdb/cursor"

// Header layout, little endian, zero padded to HeaderBytesV1:
//
//	| magic | version | bit order | k | filters | mBits | inserted |
//	| 0   3 | 4       | 5         | 6 | 7       | 8  11 | 12    15 |

// check reports the first header field a region cannot be used with.
func (h HeaderV1) check() error {
	switch {
	case h.BitOrder != BitOrderLSB0:
		return ErrBadBitOrder
	case h.K == 0:
		return ErrBadK
	case h.MBits == 0:
		return ErrBadMBits
	}
	return nil
}

// DecodeHeaderV1 decodes a V1 header from region.
//
// ok=false indicates the region is zero-filled / uninitialized.
func DecodeHeaderV1(region []byte) (h HeaderV1, ok bool, err error) {
	if len(region) < HeaderBytesV1 {
		return HeaderV1{}, false, ErrBadRegionSize
	}
	// the length is checked, none of the reads below can fail
	c := cursor.Wrap(region[:HeaderBytesV1])

	var magic [4]byte
	_ = c.Read(magic[:])
	if magic == [4]byte{} {
		return HeaderV1{}, false, nil
	}
	if string(magic[:]) != MagicV1 {
		return HeaderV1{}, false, ErrBadMagic
	}

	var fixed [4]uint8
	for i := range fixed {
		fixed[i], _ = c.ReadU8()
	}
	if fixed[0] != VersionV1 {
		return HeaderV1{}, false, ErrBadVersion
	}
	if fixed[3] != Filters {
		return HeaderV1{}, false, ErrBadFilters
	}
	h = HeaderV1{BitOrder: fixed[1], K: fixed[2]}
	h.MBits, _ = c.ReadU32()
	h.NInserted, _ = c.ReadU32()
	if err = h.check(); err != nil {
		return HeaderV1{}, false, err
	}
	return h, true, nil
}

// EncodeHeaderV1 writes a V1 header into region.
func EncodeHeaderV1(region []byte, h HeaderV1) error {
	if len(region) < HeaderBytesV1 {
		return ErrBadRegionSize
	}
	if err := h.check(); err != nil {
		return err
	}
	c := cursor.Wrap(region[:HeaderBytesV1])
	_ = c.Write([]byte(MagicV1))
	for _, v := range []uint8{VersionV1, h.BitOrder, h.K, Filters} {
		_ = c.WriteU8(v)
	}
	_ = c.WriteU32(h.MBits)
	_ = c.WriteU32(h.NInserted)
	return c.WriteZeros(c.Remaining())
}
