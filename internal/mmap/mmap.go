package mmap

import (
	"errors"
	"fmt"
	"os"
)

var ErrEmpty = errors.New("file is empty")

// File is a read-only view of a file region held in memory.
type File struct {
	Data         []byte   // The mapped bytes
	File         *os.File // The underlying opened file
	FileSize     int      // Total size of the underlying file
	MappedOffset int      // The starting offset of the mapped region within the file
	MappedLength int      // The length of the mapped region

	raw []byte
}

func Open(filePath string) (*File, error) {
	return OpenRegion(filePath, 0, 0)
}

// OpenRegion maps length bytes of filePath starting at offset.
// A length of 0 maps everything from offset to the end of the file.
func OpenRegion(filePath string, offset, length int) (*File, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info for %q: %w", filePath, err)
	}
	fileSize := int(fi.Size())

	if fileSize == 0 {
		f.Close()
		return nil, fmt.Errorf("%q: %w", filePath, ErrEmpty)
	}

	if offset < 0 {
		f.Close()
		return nil, fmt.Errorf("offset cannot be negative: %d", offset)
	}
	if offset >= fileSize {
		f.Close()
		return nil, fmt.Errorf("offset %d is beyond file size %d", offset, fileSize)
	}

	mappedLength := length
	if length == 0 {
		mappedLength = fileSize - offset
	}
	if offset+mappedLength > fileSize {
		f.Close()
		return nil, fmt.Errorf("requested mapping (offset %d + length %d) extends beyond file size %d", offset, mappedLength, fileSize)
	}
	if mappedLength <= 0 {
		f.Close()
		return nil, fmt.Errorf("calculated mapped length is zero or negative: %d", mappedLength)
	}

	data, raw, err := mapRegion(f, offset, mappedLength)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to map file %q at offset %d with length %d: %w", filePath, offset, mappedLength, err)
	}

	return &File{
		Data:         data,
		File:         f,
		FileSize:     fileSize,
		MappedOffset: offset,
		MappedLength: mappedLength,
		raw:          raw,
	}, nil
}

func (mf *File) Close() error {
	var err error
	if mf.raw != nil {
		err = unmap(mf.raw)
		mf.raw = nil
	}
	mf.Data = nil

	if mf.File != nil {
		closeErr := mf.File.Close()
		mf.File = nil
		if closeErr != nil {
			if err != nil {
				return fmt.Errorf("failed to unmap (%w) and close file (%v)", err, closeErr)
			}
			return fmt.Errorf("failed to close file: %w", closeErr)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to unmap: %w", err)
	}
	return nil
}
