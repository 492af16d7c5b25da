package sigdb_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/findcrypt/internal/sigdb"
	"github.com/stretchr/testify/require"
)

var (
	desSbox = []byte{0x0E, 0x04, 0x0D, 0x01, 0x02, 0x0F, 0x0B, 0x08, 0x03, 0x0A, 0x06, 0x0C}
	md5Init = []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0xFE, 0xDC, 0xBA, 0x98, 0x76, 0x54, 0x32, 0x10}
)

type rawEntry struct {
	name string
	flag byte
	buf  []byte
}

// rawDB builds a database by hand, bypassing the encoder validation.
func rawDB(magic uint32, count uint16, entries ...rawEntry) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.BigEndian, magic)
	_ = binary.Write(&b, binary.BigEndian, count)
	for _, e := range entries {
		_ = binary.Write(&b, binary.BigEndian, uint32(len(e.name)))
		b.WriteString(e.name)
		b.WriteByte(e.flag)
		_ = binary.Write(&b, binary.BigEndian, uint32(len(e.buf)))
		b.Write(e.buf)
	}
	return b.Bytes()
}

func encode(t *testing.T, entries ...sigdb.Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, sigdb.NewEncoder(&buf).Encode(entries))
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()

	raw := encode(t, sigdb.Entry{Name: "x", Pattern: data, Compress: true})
	// header (6) + name len (4) + name (1) + flag (1) + buffer len (4)
	return raw[16:]
}

func TestRoundTrip(t *testing.T) {
	entries := []sigdb.Entry{
		{Name: "DES_SBOX", Pattern: desSbox},
		{Name: "MD5_INIT", Pattern: md5Init, Compress: true},
		{Name: "MD5_INIT", Pattern: []byte{0x42}},
		{Name: "CRC32_TABLE", Pattern: bytes.Repeat([]byte{0x77, 0x07, 0x30, 0x96}, 256), Compress: true},
	}

	db, err := sigdb.Decode(bytes.NewReader(encode(t, entries...)))
	require.NoError(t, err)

	require.Equal(t, len(entries), db.DeclaredCount())
	require.Equal(t, len(entries), db.Len())

	for i, sig := range db.All() {
		require.Equal(t, entries[i].Name, sig.Name)
		require.Equal(t, entries[i].Pattern, sig.Pattern)
	}
}

func TestCompressedEntryIsStoredCompressed(t *testing.T) {
	pattern := bytes.Repeat([]byte{0xAA}, 4096)
	data := encode(t, sigdb.Entry{Name: "ZEROS", Pattern: pattern, Compress: true})

	require.Less(t, len(data), len(pattern))
	require.Equal(t, sigdb.FlagCompressed, data[6+4+len("ZEROS")])
}

func TestDecodeHeaderErrors(t *testing.T) {
	entry := rawEntry{name: "A", flag: sigdb.FlagRaw, buf: []byte{1}}

	t.Run("bad magic", func(t *testing.T) {
		db, err := sigdb.Decode(bytes.NewReader(rawDB(0xCAFEBABE, 1, entry)))
		require.Nil(t, db)
		require.ErrorIs(t, err, sigdb.ErrFormat)

		var ferr *sigdb.FormatError
		require.ErrorAs(t, err, &ferr)
		require.Equal(t, "magic", ferr.Field)
		require.Equal(t, sigdb.HeaderEntry, ferr.Entry)
	})

	t.Run("zero entries", func(t *testing.T) {
		db, err := sigdb.Decode(bytes.NewReader(rawDB(sigdb.Magic, 0)))
		require.Nil(t, db)
		require.ErrorIs(t, err, sigdb.ErrFormat)

		var ferr *sigdb.FormatError
		require.ErrorAs(t, err, &ferr)
		require.Equal(t, "total_entries", ferr.Field)
	})
}

func TestDecodeZeroLengthFields(t *testing.T) {
	t.Run("name", func(t *testing.T) {
		data := rawDB(sigdb.Magic, 2,
			rawEntry{name: "OK", flag: sigdb.FlagRaw, buf: []byte{1}},
			rawEntry{name: "", flag: sigdb.FlagRaw, buf: []byte{1}},
		)
		db, err := sigdb.Decode(bytes.NewReader(data))
		require.Nil(t, db)

		var ferr *sigdb.FormatError
		require.ErrorAs(t, err, &ferr)
		require.Equal(t, 1, ferr.Entry)
		require.Equal(t, "name_length", ferr.Field)
	})

	t.Run("buffer", func(t *testing.T) {
		data := rawDB(sigdb.Magic, 1, rawEntry{name: "EMPTY", flag: sigdb.FlagRaw})
		db, err := sigdb.Decode(bytes.NewReader(data))
		require.Nil(t, db)

		var ferr *sigdb.FormatError
		require.ErrorAs(t, err, &ferr)
		require.Equal(t, "buffer_length", ferr.Field)
		require.Contains(t, ferr.Error(), "EMPTY")
	})
}

func TestDecodeTruncated(t *testing.T) {
	data := encode(t,
		sigdb.Entry{Name: "DES_SBOX", Pattern: desSbox},
		sigdb.Entry{Name: "MD5_INIT", Pattern: md5Init, Compress: true},
	)

	for n := 0; n < len(data); n++ {
		db, err := sigdb.Decode(bytes.NewReader(data[:n]))
		require.Nil(t, db, "prefix of %d bytes", n)
		require.ErrorIs(t, err, sigdb.ErrIO, "prefix of %d bytes", n)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "prefix of %d bytes", n)
	}
}

func TestDecodeCountLargerThanEntries(t *testing.T) {
	data := rawDB(sigdb.Magic, 3,
		rawEntry{name: "A", flag: sigdb.FlagRaw, buf: []byte{1}},
		rawEntry{name: "B", flag: sigdb.FlagRaw, buf: []byte{2}},
	)

	db, err := sigdb.Decode(bytes.NewReader(data))
	require.Nil(t, db)

	var ioErr *sigdb.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, 2, ioErr.Entry)
}

func TestDecodeCorruptCompressedPayload(t *testing.T) {
	t.Run("not gzip", func(t *testing.T) {
		data := rawDB(sigdb.Magic, 1, rawEntry{name: "BAD", flag: sigdb.FlagCompressed, buf: []byte("plain bytes")})
		db, err := sigdb.Decode(bytes.NewReader(data))
		require.Nil(t, db)
		require.ErrorIs(t, err, sigdb.ErrDecompress)

		var derr *sigdb.DecompressionError
		require.ErrorAs(t, err, &derr)
		require.Equal(t, "BAD", derr.Name)
	})

	t.Run("truncated stream", func(t *testing.T) {
		stream := gzipped(t, bytes.Repeat(md5Init, 64))
		data := rawDB(sigdb.Magic, 1, rawEntry{name: "CUT", flag: sigdb.FlagCompressed, buf: stream[:len(stream)/2]})
		db, err := sigdb.Decode(bytes.NewReader(data))
		require.Nil(t, db)
		require.ErrorIs(t, err, sigdb.ErrDecompress)
	})

	t.Run("exceeds max size", func(t *testing.T) {
		data := encode(t, sigdb.Entry{Name: "BIG", Pattern: make([]byte, 1024), Compress: true})
		db, err := sigdb.Decode(bytes.NewReader(data), sigdb.WithMaxPatternSize(512))
		require.Nil(t, db)
		require.ErrorIs(t, err, sigdb.ErrDecompress)
	})
}

func TestDecodeTrailingBytesAfterGzipMember(t *testing.T) {
	stream := append(gzipped(t, md5Init), 0x00, 0x00)
	data := rawDB(sigdb.Magic, 2,
		rawEntry{name: "MD5_INIT", flag: sigdb.FlagCompressed, buf: stream},
		rawEntry{name: "DES_SBOX", flag: sigdb.FlagRaw, buf: desSbox},
	)

	db, err := sigdb.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())
	require.Equal(t, md5Init, db.At(0).Pattern)
	require.Equal(t, desSbox, db.At(1).Pattern)
}

func TestDecodeUnknownCompressionFlag(t *testing.T) {
	data := rawDB(sigdb.Magic, 1, rawEntry{name: "ODD", flag: 0x02, buf: []byte{0xDE, 0xAD}})

	db, err := sigdb.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD}, db.At(0).Pattern)

	db, err = sigdb.Decode(bytes.NewReader(data), sigdb.WithStrictCompressionFlag(true))
	require.Nil(t, db)

	var ferr *sigdb.FormatError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, "is_compressed", ferr.Field)
}

func TestEncodeValidation(t *testing.T) {
	var buf bytes.Buffer
	enc := sigdb.NewEncoder(&buf)

	require.ErrorIs(t, enc.Encode(nil), sigdb.ErrFormat)
	require.ErrorIs(t, enc.Encode([]sigdb.Entry{{Name: "", Pattern: []byte{1}}}), sigdb.ErrFormat)
	require.ErrorIs(t, enc.Encode([]sigdb.Entry{{Name: "A"}}), sigdb.ErrFormat)
	require.ErrorIs(t, enc.Encode(make([]sigdb.Entry, sigdb.MaxEntries+1)), sigdb.ErrFormat)
}

type countingReader struct {
	r      io.Reader
	reads  int
	closed int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func (c *countingReader) Close() error {
	c.closed++
	return nil
}

func TestSourceLoadOnce(t *testing.T) {
	r := &countingReader{r: bytes.NewReader(encode(t, sigdb.Entry{Name: "A", Pattern: []byte{1, 2}}))}
	src := sigdb.ReaderSource("mem", r)

	db, err := src.Load()
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())
	require.Equal(t, 1, r.closed)

	reads := r.reads

	again, err := src.Load()
	require.NoError(t, err)
	require.Same(t, db, again)
	require.Equal(t, reads, r.reads)
	require.Equal(t, 1, again.Len())
	require.Equal(t, 1, r.closed)
}

func TestSourceClosesOnFailure(t *testing.T) {
	r := &countingReader{r: bytes.NewReader(rawDB(0x0BADF00D, 1))}

	db, err := sigdb.ReaderSource("mem", r).Load()
	require.Nil(t, db)
	require.ErrorIs(t, err, sigdb.ErrFormat)
	require.Equal(t, 1, r.closed)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.d3v")
	require.NoError(t, os.WriteFile(path, encode(t,
		sigdb.Entry{Name: "DES_SBOX", Pattern: desSbox},
		sigdb.Entry{Name: "MD5_INIT", Pattern: md5Init, Compress: true},
	), 0644))

	db, err := sigdb.FileSource(path).Load()
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())
	require.Equal(t, md5Init, db.At(1).Pattern)

	_, err = sigdb.FileSource(filepath.Join(t.TempDir(), "missing.d3v")).Load()
	require.ErrorIs(t, err, sigdb.ErrIO)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
