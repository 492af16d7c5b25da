package target

import (
	"bytes"
)

// Memory is a target whose contents are held entirely in memory.
// Offsets are reported relative to base.
type Memory struct {
	data []byte
	base uint64
}

func Bytes(data []byte, base uint64) *Memory {
	return &Memory{data: data, base: base}
}

func (m *Memory) MinOffset() uint64 {
	return m.base
}

func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// Find returns the offset of the first occurrence of pattern at or after start.
func (m *Memory) Find(start uint64, pattern []byte) (uint64, bool, error) {
	if start < m.base || start-m.base > uint64(len(m.data)) {
		return 0, false, nil
	}

	from := start - m.base
	idx := bytes.Index(m.data[from:], pattern)
	if idx < 0 {
		return 0, false, nil
	}
	return start + uint64(idx), true, nil
}

// Slice narrows the target to [start, start+size) relative to its base.
// A zero size extends the range to the end of the data.
func (m *Memory) Slice(start, size uint64) *Memory {
	n := uint64(len(m.data))
	start = min(start, n)
	end := n
	if size > 0 && size <= n-start {
		end = start + size
	}
	return &Memory{data: m.data[start:end], base: m.base + start}
}
