//go:build !unix

package mmap

import (
	"io"
	"os"
)

// mapRegion reads the region into memory on platforms without mmap support.
func mapRegion(f *os.File, offset, length int) ([]byte, []byte, error) {
	data := make([]byte, length)
	if _, err := f.ReadAt(data, int64(offset)); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return data, nil, nil
}

func unmap(raw []byte) error {
	return nil
}
