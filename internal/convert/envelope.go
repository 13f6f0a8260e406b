package convert

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/ulid/v2"
)

// ErrTooLarge is returned by Stage when the stream crosses the byte ceiling.
var ErrTooLarge = errors.New("upload exceeds the configured ceiling")

// Envelope is the per-request staged upload. It lives from the moment the
// file part starts arriving until the request finishes; Discard must always
// run so no temp storage outlives the request.
type Envelope struct {
	ID       string
	Filename string
	// DeclaredBytes is the client-declared content length, -1 when absent.
	DeclaredBytes int64
	// Bytes is the observed size of the staged payload.
	Bytes int64

	path string
}

// Stage streams r into a temp file under dir, failing closed with ErrTooLarge
// the instant the running count crosses limit. The declared length is assumed
// to have been checked against the ceiling before any body bytes were read.
func Stage(r io.Reader, filename string, declared, limit int64, dir string) (*Envelope, error) {
	id := ulid.Make().String()
	f, err := newTempFile(dir, id)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	path := f.Name()

	// One byte past the limit is enough to witness the violation without
	// draining an unbounded stream.
	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage upload: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage upload: %w", closeErr)
	}
	if n > limit {
		_ = os.Remove(path)
		return nil, ErrTooLarge
	}

	return &Envelope{
		ID:            id,
		Filename:      filename,
		DeclaredBytes: declared,
		Bytes:         n,
		path:          path,
	}, nil
}

func (e *Envelope) Open() (*os.File, error) { return os.Open(e.path) }

func (e *Envelope) Path() string { return e.path }

// Discard removes the staged temp file. Safe to call more than once.
func (e *Envelope) Discard() {
	if e == nil || e.path == "" {
		return
	}
	_ = os.Remove(e.path)
	e.path = ""
}
