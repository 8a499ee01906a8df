package bloom

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const bloomDomainV1 = 0xB0

// InitV1 initializes a region with a HeaderV1 and empty bitsets.
//
// The caller must allocate region with at least RegionBytesV1(mBits), where:
//
//	mBits = uint32(bitsPerElement * elemCount)
func InitV1(region []byte, elemCount uint64, bitsPerElement uint64, k uint8) error {
	if elemCount == 0 || bitsPerElement == 0 {
		return ErrBadMBits
	}
	if err := CheckBPE(bitsPerElement); err != nil {
		return err
	}
	mBits := MBitsSafeCast(MBitsV1(elemCount, bitsPerElement))
	if mBits == 0 {
		return ErrMBitsOverflow
	}
	need := RegionBytesV1(mBits)
	if uint64(len(region)) < need {
		return ErrBadRegionSize
	}

	// Ensure clean initialization even if region is reused.
	clear(region[:need])

	return EncodeHeaderV1(region, HeaderV1{
		BitOrder:  BitOrderLSB0,
		K:         k,
		MBits:     mBits,
		NInserted: 0,
	})
}

// InsertV1 inserts hash into filterIdx and increments NInserted in the header.
func InsertV1(region []byte, filterIdx uint8, hash uint32) error {
	h, bitset, err := filterBitsetV1(region, filterIdx)
	if err != nil {
		return err
	}

	h1, h2 := hashPairV1(filterIdx, hash)
	setBitsLSB0(bitset, uint64(h.MBits), h.K, h1, h2)

	// Update optional counter.
	h.NInserted++
	return EncodeHeaderV1(region, h)
}

// MaybeContainsV1 checks membership for hash in filterIdx.
//
// Returns (false,nil) if the filter says "definitely not present".
// Returns (true,nil) if the filter says "maybe present".
func MaybeContainsV1(region []byte, filterIdx uint8, hash uint32) (bool, error) {
	h, bitset, err := filterBitsetV1(region, filterIdx)
	if err != nil {
		return false, err
	}
	h1, h2 := hashPairV1(filterIdx, hash)
	return testBitsLSB0(bitset, uint64(h.MBits), h.K, h1, h2), nil
}

// CheckRegionV1 validates the header and that region holds every bitset.
func CheckRegionV1(region []byte) error {
	h, ok, err := DecodeHeaderV1(region)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotInitialized
	}
	if uint64(len(region)) < RegionBytesV1(h.MBits) {
		return ErrBadRegionSize
	}
	return nil
}

func filterBitsetV1(region []byte, filterIdx uint8) (HeaderV1, []byte, error) {
	if filterIdx >= Filters {
		return HeaderV1{}, nil, ErrBadFilterIndex
	}
	h, ok, err := DecodeHeaderV1(region)
	if err != nil {
		return HeaderV1{}, nil, err
	}
	if !ok {
		return HeaderV1{}, nil, ErrNotInitialized
	}

	bitsetBytes := BitsetBytesV1(h.MBits)
	off, err := filterBitsetOffV1(filterIdx, bitsetBytes)
	if err != nil {
		return HeaderV1{}, nil, err
	}
	end := uint64(off) + uint64(bitsetBytes)
	if uint64(len(region)) < end {
		return HeaderV1{}, nil, ErrBadRegionSize
	}
	return h, region[off : off+bitsetBytes], nil
}

func hashPairV1(filterIdx uint8, hash uint32) (h1 uint64, h2 uint64) {
	// xxhash64( 0xB0 || filterIdx || hash_le4 ), split for double hashing
	var buf [1 + 1 + ElemBytes]byte
	buf[0] = bloomDomainV1
	buf[1] = filterIdx
	binary.LittleEndian.PutUint32(buf[2:], hash)
	sum := xxhash.Sum64(buf[:])
	h1 = sum
	h2 = (sum >> 32) | (sum << 32)
	h2 ^= 0x9E3779B97F4A7C15
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

func setBitsLSB0(bitset []byte, mBits uint64, k uint8, h1, h2 uint64) {
	for i := uint64(0); i < uint64(k); i++ {
		j := (h1 + i*h2) % mBits
		byteIdx := j >> 3
		bit := uint8(j & 7)
		bitset[byteIdx] |= (1 << bit)
	}
}

func testBitsLSB0(bitset []byte, mBits uint64, k uint8, h1, h2 uint64) bool {
	for i := uint64(0); i < uint64(k); i++ {
		j := (h1 + i*h2) % mBits
		byteIdx := j >> 3
		bit := uint8(j & 7)
		if (bitset[byteIdx] & (1 << bit)) == 0 {
			return false
		}
	}
	return true
}
