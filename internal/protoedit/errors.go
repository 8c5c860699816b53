package protoedit

import (
	"errors"
	"fmt"
)

// Editing errors. Callers match them with errors.Is; every error returned by
// this package wraps at least one of them.
var (
	ErrTruncatedInput      = errors.New("truncated input")
	ErrMalformedVarint     = errors.New("malformed varint")
	ErrUnsupportedWireType = errors.New("unsupported wire type")
	ErrMalformedField      = errors.New("malformed field")
)

// FieldError describes where in a buffer a field could not be read.
type FieldError struct {
	Offset int   // offset of the tag that could not be framed
	Err    error // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", ErrMalformedField, e.Offset, e.Err)
}

// Unwrap exposes both ErrMalformedField and the underlying cause.
func (e *FieldError) Unwrap() []error {
	return []error{ErrMalformedField, e.Err}
}

func malformedAt(offset int, err error) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	return &FieldError{Offset: offset, Err: err}
}
