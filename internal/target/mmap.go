package target

import (
	"github.com/ostafen/findcrypt/internal/mmap"
)

// Mapped is a memory target backed by a read-only file mapping.
type Mapped struct {
	*Memory

	f *mmap.File
}

// Mmap maps the file at path and exposes it as a target starting at offset 0.
func Mmap(path string) (*Mapped, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &Mapped{
		Memory: Bytes(f.Data, 0),
		f:      f,
	}, nil
}

func (m *Mapped) Close() error {
	return m.f.Close()
}
