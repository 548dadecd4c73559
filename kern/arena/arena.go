// Package arena provides the growth primitive behind the kernel heap: a
// contiguous byte region whose break moves up in page-sized steps.
//
// Two providers are available:
//
//   - Mem: backed by a Go slice whose capacity is reserved up front
//   - Mapped: backed by an anonymous mmap reservation (unix only; falls back to Mem)
//
// Both reserve their full limit at construction so the backing array never
// moves. Payload slices handed out by the allocator stay valid across growth.
//
// Providers are not safe for concurrent use; the allocator that owns one
// serializes access.
package arena

import "errors"

var (
	// ErrNoMemory is the "no more memory" sentinel returned when growth would
	// pass the provider's limit.
	ErrNoMemory = errors.New("arena: no more memory")

	// ErrUnaligned indicates a growth request that is not a whole number of pages.
	ErrUnaligned = errors.New("arena: growth not page aligned")

	// ErrBadLimit indicates an unusable reservation size.
	ErrBadLimit = errors.New("arena: invalid limit")
)

const (
	// PageSize is the growth granularity.
	PageSize = 0x1000

	// MaxLimit bounds a reservation so every offset fits a 32-bit address.
	MaxLimit = 1 << 31
)

// Provider is the growth interface the allocator consumes.
type Provider interface {
	// Grow moves the break up by delta bytes (a multiple of PageSize) and
	// returns the previous break. Grow(0) reports the current break.
	Grow(delta int) (int, error)

	// Break returns the current break (the end of the usable region).
	Break() int

	// Bytes returns the usable region [0, Break()).
	Bytes() []byte
}

// checkLimit validates a reservation size.
func checkLimit(limit int) error {
	if limit <= 0 || int64(limit) > MaxLimit || limit%PageSize != 0 {
		return ErrBadLimit
	}
	return nil
}

// Mem is a slice-backed Provider.
type Mem struct {
	buf []byte // len == break, cap == limit
}

// NewMem reserves limit bytes of heap memory.
func NewMem(limit int) (*Mem, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return &Mem{buf: make([]byte, 0, limit)}, nil
}

// Grow implements Provider.
func (m *Mem) Grow(delta int) (int, error) {
	return grow(&m.buf, delta)
}

// Break implements Provider.
func (m *Mem) Break() int { return len(m.buf) }

// Bytes implements Provider.
func (m *Mem) Bytes() []byte { return m.buf }

// Limit returns the reservation size.
func (m *Mem) Limit() int { return cap(m.buf) }

// grow is shared by the providers: both keep break as len and limit as cap.
func grow(region *[]byte, delta int) (int, error) {
	old := len(*region)
	if delta < 0 || delta%PageSize != 0 {
		return -1, ErrUnaligned
	}
	if delta > cap(*region)-old {
		return -1, ErrNoMemory
	}
	*region = (*region)[:old+delta]
	return old, nil
}
