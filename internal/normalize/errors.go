package normalize

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Sentinel reasons carried by ParseError.
var (
	ErrBlankID       = eris.New("blank identifier")
	ErrNotNumeric    = eris.New("identifier is not numeric")
	ErrFractional    = eris.New("identifier is not an integer")
	ErrNegative      = eris.New("identifier is negative")
	ErrOutOfRange    = eris.New("identifier is out of range")
	ErrDuplicate     = eris.New("duplicate identifier")
	ErrMissingColumn = eris.New("missing column")
)

// LoadError is fatal: the raw table cannot be normalized at all.
type LoadError struct {
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("normalize: column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("normalize: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError describes one rejected record. Row is 1-based and does not
// count the header.
type ParseError struct {
	Row int
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("normalize: row %d: identifier %q: %v", e.Row, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
