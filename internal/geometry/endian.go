package geometry

import "encoding/binary"

// ReadLE16 reads a little-endian 16-bit field from an on-disk byte buffer.
// The source format is fixed (little-endian) regardless of host byte order,
// so this never uses a raw struct cast.
func ReadLE16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// WriteLE16 stores v as little-endian into b (len(b) must be >= 2).
func WriteLE16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}
