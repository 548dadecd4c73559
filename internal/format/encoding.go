package format

import "encoding/binary"

// The arena stores every tag and link as a little-endian uint32.
//
// Implementation: encoding/binary.LittleEndian. The compiler inlines these
// calls, so the helpers cost nothing over raw unsafe access while keeping the
// bounds checks.

// PutU32 writes v to b at off in little-endian order.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a little-endian uint32 from b at off.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
