package sigdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/gzip"
)

type options struct {
	strictFlag     bool
	maxPatternSize int64
	logger         *slog.Logger
}

type Option func(*options)

// WithStrictCompressionFlag rejects compression flags other than 0x00 and 0x01.
// By default any value other than 0x01 is read as an uncompressed pattern.
func WithStrictCompressionFlag(strict bool) Option {
	return func(o *options) { o.strictFlag = strict }
}

// WithMaxPatternSize bounds the decompressed size of a single pattern.
func WithMaxPatternSize(n int64) Option {
	return func(o *options) { o.maxPatternSize = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{
		maxPatternSize: DefaultMaxPatternSize,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type decoder struct {
	r    io.Reader
	opts options
	buf  [4]byte
}

// Decode reads a whole signature database from r.
// On failure no database is returned, regardless of how many entries were read.
func Decode(r io.Reader, opts ...Option) (*Database, error) {
	d := &decoder{r: r, opts: buildOptions(opts)}

	count, err := d.readHeader()
	if err != nil {
		return nil, err
	}

	signatures := make([]Signature, 0, count)
	for i := 0; i < count; i++ {
		sig, err := d.readEntry(i)
		if err != nil {
			return nil, err
		}
		signatures = append(signatures, sig)
	}

	d.opts.logger.Debug("signature database decoded", "entries", count)

	return &Database{
		declaredCount: count,
		signatures:    signatures,
	}, nil
}

func (d *decoder) readHeader() (int, error) {
	magic, err := d.readUint32(HeaderEntry, "magic")
	if err != nil {
		return 0, err
	}
	if magic != Magic {
		return 0, &FormatError{
			Entry:  HeaderEntry,
			Field:  "magic",
			Reason: fmt.Sprintf("got 0x%08X, expected 0x%08X", magic, Magic),
		}
	}

	if err := d.readFull(HeaderEntry, "total_entries", d.buf[:2]); err != nil {
		return 0, err
	}

	count := int(binary.BigEndian.Uint16(d.buf[:2]))
	if count == 0 {
		return 0, &FormatError{Entry: HeaderEntry, Field: "total_entries", Reason: "database has 0 entries"}
	}
	return count, nil
}

func (d *decoder) readEntry(i int) (Signature, error) {
	nameLen, err := d.readUint32(i, "name_length")
	if err != nil {
		return Signature{}, err
	}
	if nameLen == 0 {
		return Signature{}, &FormatError{Entry: i, Field: "name_length", Reason: "entry has a 0 length name"}
	}

	name, err := d.readBytes(i, "name", nameLen)
	if err != nil {
		return Signature{}, err
	}

	if err := d.readFull(i, "is_compressed", d.buf[:1]); err != nil {
		return Signature{}, err
	}
	flag := d.buf[0]
	if d.opts.strictFlag && flag != FlagRaw && flag != FlagCompressed {
		return Signature{}, &FormatError{
			Entry:  i,
			Field:  "is_compressed",
			Reason: fmt.Sprintf("unknown compression flag 0x%02X", flag),
		}
	}

	bufLen, err := d.readUint32(i, "buffer_length")
	if err != nil {
		return Signature{}, err
	}
	if bufLen == 0 {
		return Signature{}, &FormatError{
			Entry:  i,
			Field:  "buffer_length",
			Reason: fmt.Sprintf("entry %q has no buffer", name),
		}
	}

	pattern, err := d.readBytes(i, "buffer", bufLen)
	if err != nil {
		return Signature{}, err
	}

	if flag == FlagCompressed {
		pattern, err = d.decompress(pattern)
		if err != nil {
			return Signature{}, &DecompressionError{Entry: i, Name: string(name), Err: err}
		}
		if len(pattern) == 0 {
			return Signature{}, &FormatError{
				Entry:  i,
				Field:  "buffer",
				Reason: fmt.Sprintf("entry %q decompresses to an empty pattern", name),
			}
		}
	}

	d.opts.logger.Debug("signature entry read",
		"entry", i,
		"name", string(name),
		"compressed", flag == FlagCompressed,
		"size", len(pattern),
	)

	return Signature{Name: string(name), Pattern: pattern}, nil
}

func (d *decoder) decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	// An entry holds one gzip member; bytes after it are not another stream.
	zr.Multistream(false)

	var out bytes.Buffer
	n, err := io.Copy(&out, io.LimitReader(zr, d.opts.maxPatternSize+1))
	if err != nil {
		return nil, err
	}
	if n > d.opts.maxPatternSize {
		return nil, fmt.Errorf("pattern exceeds %d bytes", d.opts.maxPatternSize)
	}
	return out.Bytes(), nil
}

// readFull fills b. Running out of input anywhere is unexpected, since the
// header declares how many entries follow.
func (d *decoder) readFull(entry int, field string, b []byte) error {
	if _, err := io.ReadFull(d.r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return &IOError{Entry: entry, Field: field, Err: err}
	}
	return nil
}

func (d *decoder) readUint32(entry int, field string) (uint32, error) {
	if err := d.readFull(entry, field, d.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.buf[:4]), nil
}

// readBytes reads exactly n bytes. The buffer grows as data arrives rather than
// being sized from n up front.
func (d *decoder) readBytes(entry int, field string, n uint32) ([]byte, error) {
	var buf bytes.Buffer
	m, err := io.CopyN(&buf, d.r, int64(n))
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("%w: read %d of %d bytes", io.ErrUnexpectedEOF, m, n)
		}
		return nil, &IOError{Entry: entry, Field: field, Err: err}
	}
	return buf.Bytes(), nil
}
