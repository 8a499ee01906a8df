package cursor

import "encoding/binary"

func readU16(b []byte) uint16     { return binary.LittleEndian.Uint16(b) }
func readU32(b []byte) uint32     { return binary.LittleEndian.Uint32(b) }
func writeU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func writeU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
