package sigdb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Entry is a signature to be written, along with how its pattern is stored.
type Entry struct {
	Name     string
	Pattern  []byte
	Compress bool
}

type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes a complete database containing entries, in order.
func (e *Encoder) Encode(entries []Entry) error {
	if len(entries) == 0 {
		return &FormatError{Entry: HeaderEntry, Field: "total_entries", Reason: "database has 0 entries"}
	}
	if len(entries) > MaxEntries {
		return &FormatError{
			Entry:  HeaderEntry,
			Field:  "total_entries",
			Reason: fmt.Sprintf("%d entries exceed the limit of %d", len(entries), MaxEntries),
		}
	}

	var hdr [6]byte
	binary.BigEndian.PutUint32(hdr[:4], Magic)
	binary.BigEndian.PutUint16(hdr[4:], uint16(len(entries)))
	if _, err := e.w.Write(hdr[:]); err != nil {
		return err
	}

	for i, entry := range entries {
		if err := e.writeEntry(i, entry); err != nil {
			return err
		}
	}
	return e.w.Flush()
}

func (e *Encoder) writeEntry(i int, entry Entry) error {
	if len(entry.Name) == 0 {
		return &FormatError{Entry: i, Field: "name_length", Reason: "entry has a 0 length name"}
	}
	if len(entry.Pattern) == 0 {
		return &FormatError{Entry: i, Field: "buffer_length", Reason: fmt.Sprintf("entry %q has no buffer", entry.Name)}
	}

	flag := FlagRaw
	buf := entry.Pattern
	if entry.Compress {
		compressed, err := compress(entry.Pattern)
		if err != nil {
			return fmt.Errorf("failed to compress entry %q: %w", entry.Name, err)
		}
		flag = FlagCompressed
		buf = compressed
	}

	if err := e.writeUint32(uint32(len(entry.Name))); err != nil {
		return err
	}
	if _, err := e.w.WriteString(entry.Name); err != nil {
		return err
	}
	if err := e.w.WriteByte(flag); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(len(buf))); err != nil {
		return err
	}
	_, err := e.w.Write(buf)
	return err
}

func (e *Encoder) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := e.w.Write(b[:])
	return err
}

func compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
