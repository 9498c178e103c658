package genluastubs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure. Its numeric value is the process exit code.
type Kind int

const (
	// KindInputNotFound means the input path is not an existing regular file.
	KindInputNotFound Kind = 1
	// KindOutputDirNotFound shares its code with KindInputNotFound.
	KindOutputDirNotFound Kind = 1
	// KindConfig covers bad flags or output name patterns.
	KindConfig Kind = 1
	// KindEmptyInput means the input file has no bytes.
	KindEmptyInput Kind = 2
	// KindDecode means the input is not a valid FileDescriptorSet.
	KindDecode Kind = 3
	// KindWrite means an output file could not be replaced or written.
	KindWrite Kind = 4
	// KindInvalidDescriptor means the set decoded but describes something
	// we refuse to render, such as a reference field with no type name.
	KindInvalidDescriptor Kind = 5
	// KindUnknown is reported for errors that carry no Kind.
	KindUnknown Kind = 6
	// KindRead means the input exists but could not be read.
	KindRead Kind = 7
)

// Error is returned from every stage of the pipeline.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause see through to the wrapped error.
func (e *Error) Cause() error { return e.Err }

func newError(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

func errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Code returns the exit code for err: 0 for nil, otherwise the Kind of the
// first *Error in the chain.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return int(e.Kind)
	}
	return int(KindUnknown)
}
