package imposition

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports invalid options such as an unknown binding
	// edge, a bad paper format or a pages per sheet value that is not a
	// power of two.
	ErrConfiguration = errors.New("configuration error")
	// ErrArithmetic reports degenerate geometry, typically a zero dimension.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrPrecondition reports a page list whose length cannot be folded.
	ErrPrecondition = errors.New("precondition violated")
)

// Error carries the operation that failed alongside its kind.
// errors.Is(err, ErrConfiguration) and friends match on Kind.
type Error struct {
	Kind error
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func configf(op, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func arithf(op, format string, args ...any) error {
	return &Error{Kind: ErrArithmetic, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func preconditionf(op, format string, args ...any) error {
	return &Error{Kind: ErrPrecondition, Op: op, Msg: fmt.Sprintf(format, args...)}
}
