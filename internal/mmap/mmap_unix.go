//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapRegion returns the requested view together with the underlying mapping,
// which starts at the page boundary preceding offset.
func mapRegion(f *os.File, offset, length int) ([]byte, []byte, error) {
	pageSize := unix.Getpagesize()
	aligned := offset / pageSize * pageSize
	delta := offset - aligned

	raw, err := unix.Mmap(int(f.Fd()), int64(aligned), length+delta, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return raw[delta:], raw, nil
}

func unmap(raw []byte) error {
	return unix.Munmap(raw)
}
