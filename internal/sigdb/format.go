// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package sigdb

import (
	"errors"
	"fmt"
)

// Structure of a database file. Multi-byte integers are big-endian.
//
//	| MAGIC (4)    | Total Entries (2)                        |
//	| NameSize (4) | Name (x) | isCompressed (1) | BSize (4) |
//	| Buffer (x)   | ...                                      |
const (
	Magic uint32 = 0xD3010401

	FlagRaw        byte = 0x00
	FlagCompressed byte = 0x01

	// MaxEntries is the largest count representable in the header.
	MaxEntries = 1<<16 - 1

	DefaultMaxPatternSize = 64 * 1024 * 1024
)

// HeaderEntry is used as the entry index of errors raised while reading the header.
const HeaderEntry = -1

var (
	ErrFormat     = errors.New("invalid database format")
	ErrIO         = errors.New("database read failed")
	ErrDecompress = errors.New("pattern decompression failed")
)

// FormatError reports a violated structural invariant of the container.
type FormatError struct {
	Entry  int
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Entry == HeaderEntry {
		return fmt.Sprintf("%s: header %s: %s", ErrFormat, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: entry %d %s: %s", ErrFormat, e.Entry, e.Field, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// IOError reports a short read or a failure of the underlying stream.
type IOError struct {
	Entry int
	Field string
	Err   error
}

func (e *IOError) Error() string {
	if e.Entry == HeaderEntry {
		return fmt.Sprintf("%s: header %s: %v", ErrIO, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: entry %d %s: %v", ErrIO, e.Entry, e.Field, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// DecompressionError reports a corrupt or truncated gzip payload.
type DecompressionError struct {
	Entry int
	Name  string
	Err   error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("%s: entry %d (%s): %v", ErrDecompress, e.Entry, e.Name, e.Err)
}

func (e *DecompressionError) Unwrap() []error { return []error{ErrDecompress, e.Err} }
