package format

// AlignEven rounds n up to the next even number. Block payloads are kept even so
// the low bit of a tag is free for the allocated flag.
//
// Example:
//
//	AlignEven(7) = 8
//	AlignEven(8) = 8
func AlignEven(n uint32) uint32 {
	return (n + 1) &^ 1
}

// RoundPage rounds n up to a multiple of pageSize, which must be a power of two.
//
// Example:
//
//	RoundPage(1, 4096)    = 4096
//	RoundPage(4096, 4096) = 4096
//	RoundPage(4097, 4096) = 8192
func RoundPage(n, pageSize int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

// PayloadFloor applies the minimum payload and even rounding to a request.
func PayloadFloor(size uint32) uint32 {
	size = AlignEven(size)
	if size < MinPayload {
		size = MinPayload
	}
	return size
}

// BlockSizeFor returns the total block size (payload plus tags) needed to hold
// a request of size payload bytes.
func BlockSizeFor(size uint32) uint32 {
	return PayloadFloor(size) + TagOverhead
}
