package notation

import (
	"errors"
	"fmt"
)

// Parser errors.
var (
	ErrUnexpectedChar = errors.New("unexpected character")
	ErrUnexpectedEOF  = errors.New("unexpected end of input")
	ErrEmptyKey       = errors.New("empty key")
	ErrDepthExceeded  = errors.New("maximum nesting depth exceeded")
	ErrTrailingInput  = errors.New("trailing input")
)

// ParseError provides detailed error information including position.
type ParseError struct {
	Pos     int    // byte offset in the trimmed input
	Message string // human-readable error message
	Err     error  // underlying sentinel error (for errors.Is)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("notation parse error at position %d: %s", e.Pos, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(pos int, err error, msgFmt string, args ...any) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(msgFmt, args...),
		Err:     err,
	}
}
