//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mapped is a Provider backed by an anonymous private mapping. The whole
// limit is reserved at construction; the kernel commits pages on first touch.
type Mapped struct {
	mapping []byte // full reservation
	region  []byte // mapping[:break]
}

// NewMapped reserves limit bytes of anonymous memory.
func NewMapped(limit int) (*Mapped, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	data, err := unix.Mmap(-1, 0, limit,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", limit, err)
	}
	return &Mapped{mapping: data, region: data[:0]}, nil
}

// Grow implements Provider.
func (m *Mapped) Grow(delta int) (int, error) {
	if m.mapping == nil {
		return -1, ErrNoMemory
	}
	return grow(&m.region, delta)
}

// Break implements Provider.
func (m *Mapped) Break() int { return len(m.region) }

// Bytes implements Provider.
func (m *Mapped) Bytes() []byte { return m.region }

// Limit returns the reservation size, or 0 once closed.
func (m *Mapped) Limit() int { return len(m.mapping) }

// Close releases the mapping. Any slice previously returned by Bytes becomes
// invalid. Closing twice is a no-op.
func (m *Mapped) Close() error {
	if m.mapping == nil {
		return nil
	}
	err := unix.Munmap(m.mapping)
	m.mapping, m.region = nil, nil
	return err
}
