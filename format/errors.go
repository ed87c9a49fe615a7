package format

import (
	"errors"
	"fmt"
	"io"
)

// Kind enumerates the ways a module file can be malformed.
type Kind int

const (
	KindSignature      Kind = iota + 1 // not a module file
	KindFutureRevision                 // written by a newer version
	KindTruncated                      // ends early
	KindCorrupted                      // contains invalid data
)

func (k Kind) String() string {
	switch k {
	case KindSignature:
		return "bad signature"
	case KindFutureRevision:
		return "unsupported revision"
	case KindTruncated:
		return "truncated"
	case KindCorrupted:
		return "corrupted"
	}
	return "unknown"
}

// Error is a format error: the file could be read, but its contents are not
// a valid module. Compare with errors.Is against the Err* values, which
// match any Error of the same Kind.
type Error struct {
	Kind   Kind
	Detail string
}

var (
	ErrSignature      = &Error{Kind: KindSignature}
	ErrFutureRevision = &Error{Kind: KindFutureRevision}
	ErrTruncated      = &Error{Kind: KindTruncated}
	ErrCorrupted      = &Error{Kind: KindCorrupted}
)

func (e *Error) Error() string {
	if e.Detail == "" {
		return "module file: " + e.Kind.String()
	}
	return fmt.Sprintf("module file: %v: %s", e.Kind, e.Detail)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IOError is a failure of the underlying stream, as opposed to a problem
// with the file contents.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return "module file i/o: " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

func corrupted(format string, a ...any) error {
	return &Error{Kind: KindCorrupted, Detail: fmt.Sprintf(format, a...)}
}

// readError classifies an error returned by the underlying reader.
func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return &IOError{Err: err}
}
