// Package pdferr defines the error taxonomy shared by the object model,
// the parser and the filter pipeline.
//
// Grammar violations are reported as [*ParsingError], which carries the byte
// position of the failure and the name of the object variant that was being
// parsed. [*BadCharError] specialises it for "wrong character at position"
// failures and matches errors.As targets of type **ParsingError.
// [*UnregisteredObjectTypeError] reports unknown filter or type names.
//
// Nested failures keep their cause chain: a name that fails inside a
// dictionary surfaces as a Dictionary ParsingError whose cause is the Name
// ParsingError; errors.Unwrap and [Cause] walk the chain.
package pdferr

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// NoPos marks a ParsingError whose position has not been established yet.
const NoPos = -1

// ParsingError reports a grammar violation at a byte position.
type ParsingError struct {
	Pos     int    // byte offset, or NoPos
	Variant string // object variant being parsed, e.g. "Dictionary"
	Msg     string
	cause   error
}

// NewParsingError returns a ParsingError at pos.
func NewParsingError(pos int, format string, args ...interface{}) *ParsingError {
	return &ParsingError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *ParsingError) Error() string {
	msg := e.Msg
	if e.Variant != "" {
		msg = e.Variant + ": " + msg
	}
	if e.Pos >= 0 {
		msg = fmt.Sprintf("%s at position %d", msg, e.Pos)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return "pdf: " + msg
}

// Unwrap returns the nested error, if any.
func (e *ParsingError) Unwrap() error { return e.cause }

// Format prints the cause chain with stack traces for %+v.
func (e *ParsingError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.cause != nil {
			io.WriteString(s, e.Error())
			fmt.Fprintf(s, "\n%+v", e.cause)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// BadCharError reports an unexpected byte at a position.
type BadCharError struct {
	ParsingError
	Char int // offending byte, or -1 at end of input
}

// NewBadCharError returns a BadCharError for char at pos. expected
// describes what the grammar wanted instead.
func NewBadCharError(pos int, char int, expected string) *BadCharError {
	var msg string
	if char < 0 {
		msg = fmt.Sprintf("unexpected end of input, expected %s", expected)
	} else {
		msg = fmt.Sprintf("unexpected character %q, expected %s", rune(char), expected)
	}
	return &BadCharError{
		ParsingError: ParsingError{Pos: pos, Msg: msg},
		Char:         char,
	}
}

// As lets errors.As extract the embedded ParsingError.
func (e *BadCharError) As(target interface{}) bool {
	if t, ok := target.(**ParsingError); ok {
		*t = &e.ParsingError
		return true
	}
	return false
}

// UnregisteredObjectTypeError reports a filter or object type name that has
// no registered implementation.
type UnregisteredObjectTypeError struct {
	Kind string // "filter", "object"
	Name string
}

func (e *UnregisteredObjectTypeError) Error() string {
	return fmt.Sprintf("pdf: unregistered %s type %q", e.Kind, e.Name)
}

// Enrich attaches parse context to err. The position is filled in when the
// underlying ParsingError has none; an error raised by a nested variant is
// wrapped in a new ParsingError naming variant, with err as its cause.
// Errors that are not ParsingErrors are wrapped as well.
func Enrich(err error, pos int, variant string) error {
	if err == nil {
		return nil
	}
	var pe *ParsingError
	if !stderrors.As(err, &pe) {
		return &ParsingError{Pos: pos, Variant: variant, Msg: "cannot parse", cause: errors.WithStack(err)}
	}
	if pe.Pos < 0 {
		pe.Pos = pos
	}
	if pe.Variant == "" {
		pe.Variant = variant
		return err
	}
	if pe.Variant == variant {
		return err
	}
	return &ParsingError{Pos: pos, Variant: variant, Msg: "cannot parse " + variant, cause: err}
}

// Wrapf annotates err with a message and a stack trace. It returns nil when
// err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Cause returns the innermost error of a chain.
func Cause(err error) error {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// IsParsingError reports whether err is or wraps a ParsingError.
func IsParsingError(err error) bool {
	var pe *ParsingError
	return stderrors.As(err, &pe)
}
