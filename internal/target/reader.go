package target

import (
	"bytes"
	"io"
)

const DefaultBufferSize = 4 * 1024 * 1024

// Stream is a target read through an io.ReaderAt, one window at a time.
type Stream struct {
	r       io.ReaderAt
	base    uint64
	size    uint64
	bufSize int
}

// ReaderAt returns a target covering size bytes of r starting at base.
func ReaderAt(r io.ReaderAt, base, size uint64, bufSize int) *Stream {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Stream{r: r, base: base, size: size, bufSize: bufSize}
}

func (s *Stream) MinOffset() uint64 {
	return s.base
}

func (s *Stream) Size() uint64 {
	return s.size
}

// Find searches the stream window by window. The last len(pattern)-1 bytes
// of each window are carried over to the next one, so that matches spanning
// a read boundary are not missed.
func (s *Stream) Find(start uint64, pattern []byte) (uint64, bool, error) {
	end := s.base + s.size
	if start < s.base || start >= end || len(pattern) == 0 {
		return 0, false, nil
	}

	pad := len(pattern) - 1
	buf := make([]byte, pad+s.bufSize)

	// bufOff is the absolute offset of buf[0]; kept counts the carried-over bytes.
	off := start
	bufOff := start
	kept := 0
	for off < end {
		toRead := int(min(uint64(s.bufSize), end-off))

		n, err := s.r.ReadAt(buf[kept:kept+toRead], int64(off))
		if err != nil && err != io.EOF {
			return 0, false, err
		}

		window := buf[:kept+n]
		if idx := bytes.Index(window, pattern); idx >= 0 {
			return bufOff + uint64(idx), true, nil
		}

		if n == 0 || err == io.EOF {
			break
		}
		off += uint64(n)

		carry := min(pad, len(window))
		copy(buf, window[len(window)-carry:])
		kept = carry
		bufOff = off - uint64(carry)
	}
	return 0, false, nil
}
