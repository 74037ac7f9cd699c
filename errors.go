package imago

import (
	"github.com/pkg/errors"
)

var (
	// ErrIO is matched by any error caused by a short read or write or a
	// failed seek on an IO channel
	ErrIO = errors.New("imago: i/o error")

	// ErrFormat is returned when a stream has a bad signature or an invalid
	// or unsupported header field
	ErrFormat = errors.New("imago: invalid format")

	// ErrUnrecognized is returned when no registered codec recognizes a
	// stream. It matches ErrFormat
	ErrUnrecognized = errors.Wrap(ErrFormat, "imago: unrecognized format")

	// ErrAlloc is returned when a pixel buffer cannot be obtained
	ErrAlloc = errors.New("imago: cannot allocate pixel buffer")

	// ErrUnsupported is returned for operations that are deliberately not
	// implemented, such as converting to an indexed format
	ErrUnsupported = errors.New("imago: operation not supported")
)

// IOError records a failed operation on an IO channel and the underlying
// cause.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIO
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError wraps err as an IOError for the named operation. A nil err
// returns nil.
func NewIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}
