package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates a boundary tag that cannot describe a real block.
	ErrBadTag = errors.New("format: malformed boundary tag")
)
