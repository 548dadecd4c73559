//go:build !unix

package arena

// Mapped falls back to heap memory where mmap is not available.
type Mapped struct {
	Mem
}

// NewMapped reserves limit bytes of heap memory.
func NewMapped(limit int) (*Mapped, error) {
	m, err := NewMem(limit)
	if err != nil {
		return nil, err
	}
	return &Mapped{Mem: *m}, nil
}

// Close is a no-op for heap memory.
func (m *Mapped) Close() error { return nil }
