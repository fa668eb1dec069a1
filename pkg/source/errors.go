package source

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors for source operations.
var (
	// ErrTableUnreadable indicates the address table could not be opened or read.
	ErrTableUnreadable = errors.New("address table unreadable")

	// ErrMalformedLine indicates a table line that could not be parsed.
	ErrMalformedLine = errors.New("malformed line")
)

// LineError describes one skipped table line.
type LineError struct {
	Line int    // 1-based line number
	Text string // the raw line
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ParseError collects every malformed line of a table. Entries from the
// other lines are still returned alongside it.
type ParseError struct {
	Lines []*LineError
}

func (e *ParseError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = l.Error()
	}
	return fmt.Sprintf("%d malformed line(s): %s", len(e.Lines), strings.Join(parts, "; "))
}

// Unwrap exposes the individual line errors to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	errs := make([]error, len(e.Lines))
	for i, l := range e.Lines {
		errs[i] = l
	}
	return errs
}

// IsParseError returns the *ParseError in err's chain, if any.
func IsParseError(err error) (*ParseError, bool) {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
