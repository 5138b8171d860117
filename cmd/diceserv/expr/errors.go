package expr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse             = errors.New("parse error")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrUndefined         = errors.New("undefined result")
	ErrUnacceptableDice  = errors.New("unacceptable dice count")
	ErrUnacceptableSides = errors.New("unacceptable sides count")
	ErrUnacceptableTimes = errors.New("unacceptable repeat count")
	ErrOverflow          = errors.New("overflow or underflow")
	ErrStack             = errors.New("malformed program")
)

// Kind classifies an Error. Exactly one kind is reported per attempt.
type Kind int

const (
	KindParse Kind = iota + 1
	KindDivisionByZero
	KindUndefined
	KindUnacceptableDice
	KindUnacceptableSides
	KindUnacceptableTimes
	KindOverflow
	KindStack
)

var kindErrors = map[Kind]error{
	KindParse:             ErrParse,
	KindDivisionByZero:    ErrDivisionByZero,
	KindUndefined:         ErrUndefined,
	KindUnacceptableDice:  ErrUnacceptableDice,
	KindUnacceptableSides: ErrUnacceptableSides,
	KindUnacceptableTimes: ErrUnacceptableTimes,
	KindOverflow:          ErrOverflow,
	KindStack:             ErrStack,
}

func (k Kind) String() string {
	if err, ok := kindErrors[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single failure of a compile or evaluation attempt.
//
// Pos indexes the raw expression as typed by the user. Number carries the
// offending integer for the Unacceptable kinds.
type Error struct {
	Kind    Kind
	Pos     int
	HasPos  bool
	Message string
	Number  int64
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("phase=")
	if e.Kind == KindParse {
		b.WriteString("parse")
	} else {
		b.WriteString("eval")
	}
	if e.HasPos {
		fmt.Fprintf(&b, " pos=%d", e.Pos)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case KindUnacceptableDice, KindUnacceptableSides, KindUnacceptableTimes:
		fmt.Fprintf(&b, " %d", e.Number)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap exposes the sentinel for the error's kind, so callers can use
// errors.Is(err, expr.ErrDivisionByZero).
func (e *Error) Unwrap() error {
	return kindErrors[e.Kind]
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func parseError(pos int, msg string) *Error {
	return &Error{Kind: KindParse, Pos: pos, HasPos: true, Message: msg}
}

func stackError(pos int, msg string) *Error {
	return &Error{Kind: KindStack, Pos: pos, HasPos: true, Message: msg}
}

// shift moves a positioned error right by offset characters.
func shift(err error, offset int) error {
	e, ok := AsError(err)
	if !ok || !e.HasPos || offset == 0 {
		return err
	}
	moved := *e
	moved.Pos += offset
	return &moved
}
