package sigdb

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Source is an unloaded database. Load is the only way to obtain a *Database,
// and only a *Database can be handed to a scanner.
type Source struct {
	name string
	open func() (io.ReadCloser, error)

	once sync.Once
	db   *Database
	err  error
}

// FileSource returns a Source reading the database stored at path.
func FileSource(path string) *Source {
	return &Source{
		name: path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// ReaderSource returns a Source reading from r. If r is an io.Closer it is
// closed once loading completes.
func ReaderSource(name string, r io.Reader) *Source {
	return &Source{
		name: name,
		open: func() (io.ReadCloser, error) {
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
	}
}

func (s *Source) Name() string {
	return s.name
}

// Load opens and decodes the database. The stream is closed on both success
// and failure. Subsequent calls return the result of the first one without
// touching the stream again.
func (s *Source) Load(opts ...Option) (*Database, error) {
	s.once.Do(func() {
		s.db, s.err = s.load(opts)
	})
	return s.db, s.err
}

func (s *Source) load(opts []Option) (db *Database, err error) {
	rc, err := s.open()
	if err != nil {
		return nil, &IOError{Entry: HeaderEntry, Field: "open", Err: fmt.Errorf("%s: %w", s.name, err)}
	}
	defer func() {
		closeErr := rc.Close()
		if err == nil && closeErr != nil {
			db, err = nil, &IOError{Entry: HeaderEntry, Field: "close", Err: closeErr}
		}
	}()

	return Decode(rc, opts...)
}
