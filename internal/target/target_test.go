package target_test

import (
	"bytes"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/findcrypt/internal/target"
	"github.com/stretchr/testify/require"
)

func randomBuffer(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

// place writes pattern at off and returns data for chaining.
func place(data []byte, off int, pattern []byte) []byte {
	copy(data[off:], pattern)
	return data
}

var pattern = []byte{0x67, 0xE6, 0x09, 0x6A, 0x85, 0xAE, 0x67, 0xBB}

func TestMemoryFind(t *testing.T) {
	data := place(place(make([]byte, 0x2000), 0x1000, pattern), 0x1800, pattern)
	mem := target.Bytes(data, 0x400000)

	require.Equal(t, uint64(0x400000), mem.MinOffset())

	off, found, err := mem.Find(mem.MinOffset(), pattern)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(0x401000), off)

	off, found, err = mem.Find(0x401001, pattern)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(0x401800), off)

	_, found, err = mem.Find(mem.MinOffset(), []byte("absent"))
	require.NoError(t, err)
	require.False(t, found)

	_, found, _ = mem.Find(0, pattern)
	require.False(t, found)
}

func TestMemorySlice(t *testing.T) {
	data := place(make([]byte, 0x2000), 0x100, pattern)
	mem := target.Bytes(data, 0)

	sub := mem.Slice(0x200, 0)
	require.Equal(t, uint64(0x200), sub.MinOffset())
	_, found, _ := sub.Find(sub.MinOffset(), pattern)
	require.False(t, found)

	sub = mem.Slice(0x80, 0x100)
	require.Equal(t, uint64(0x100), sub.Size())
	off, found, _ := sub.Find(sub.MinOffset(), pattern)
	require.True(t, found)
	require.Equal(t, uint64(0x100), off)

	require.Equal(t, uint64(0), mem.Slice(0x5000, 10).Size())

	sub = mem.Slice(0x10, math.MaxUint64)
	require.Equal(t, uint64(0x10), sub.MinOffset())
	require.Equal(t, uint64(len(data)-0x10), sub.Size())
	off, found, _ = sub.Find(sub.MinOffset(), pattern)
	require.True(t, found)
	require.Equal(t, uint64(0x100), off)
}

func TestStreamFindAcrossWindows(t *testing.T) {
	const bufSize = 64

	for _, off := range []int{0, 1, bufSize - 4, bufSize - 1, bufSize, 3*bufSize - 3, 1000 - len(pattern)} {
		data := place(bytes.Repeat([]byte{0xCC}, 1000), off, pattern)
		s := target.ReaderAt(bytes.NewReader(data), 0, uint64(len(data)), bufSize)

		got, found, err := s.Find(s.MinOffset(), pattern)
		require.NoError(t, err)
		require.True(t, found, "offset %d", off)
		require.Equal(t, uint64(off), got)
	}
}

func TestStreamMatchesMemory(t *testing.T) {
	data := randomBuffer(64*1024, 42)
	r := bytes.NewReader(data)

	for i := 0; i < 200; i++ {
		start := rand.Intn(len(data) - 16)
		needle := data[start : start+1+rand.Intn(15)]

		mem := target.Bytes(data, 0)
		s := target.ReaderAt(r, 0, uint64(len(data)), 1024)

		want, wantFound, _ := mem.Find(0, needle)
		got, gotFound, err := s.Find(0, needle)
		require.NoError(t, err)
		require.Equal(t, wantFound, gotFound)
		require.Equal(t, want, got)
	}
}

func TestStreamRespectsBounds(t *testing.T) {
	data := place(make([]byte, 256), 200, pattern)
	r := bytes.NewReader(data)

	s := target.ReaderAt(r, 0, 200+uint64(len(pattern))-1, 32)
	_, found, err := s.Find(0, pattern)
	require.NoError(t, err)
	require.False(t, found)

	s = target.ReaderAt(r, 100, 156, 32)
	off, found, err := s.Find(s.MinOffset(), pattern)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(200), off)
}

func TestMmap(t *testing.T) {
	data := place(randomBuffer(3*4096, 7), 5000, pattern)
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))

	m, err := target.Mmap(path)
	require.NoError(t, err)
	defer m.Close()

	want, _, _ := target.Bytes(data, 0).Find(0, pattern)
	got, found, err := m.Find(m.MinOffset(), pattern)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, want, got)
}
