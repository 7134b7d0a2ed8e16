package abstract

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	SymbolAllUnderscores ErrorKind = iota + 1
	UndefinedSymbol
	MismatchingArguments
	RecursiveFunction
	NoteNotInScale
	ZeroDuration
	TooManyNotes
	TooManySteps
)

var errorKindNames = map[ErrorKind]string{
	SymbolAllUnderscores: "SymbolAllUnderscores",
	UndefinedSymbol:      "UndefinedSymbol",
	MismatchingArguments: "MismatchingArguments",
	RecursiveFunction:    "RecursiveFunction",
	NoteNotInScale:       "NoteNotInScale",
	ZeroDuration:         "ZeroDuration",
	TooManyNotes:         "TooManyNotes",
	TooManySteps:         "TooManySteps",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a semantic error raised while evaluating a tree. Line holds the
// offending source line once the collection driver has attached it.
type Error struct {
	Kind    ErrorKind
	Message string
	Symbol  string
	Pos     Pos
	Line    string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Pos.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Pos.Line)
	}
	if e.Line != "" {
		b.WriteString("\n")
		b.WriteString(e.Line)
		b.WriteString("\n")
		col := e.Pos.Column
		if col < 1 {
			col = 1
		}
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString("^")
	}
	return b.String()
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// works as a kind test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds an error positioned at pos.
func NewError(kind ErrorKind, pos Pos, symbol, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Symbol:  symbol,
		Pos:     pos,
	}
}

// WithSource fills in Line from source when it is not already set and
// returns e.
func (e *Error) WithSource(source string) *Error {
	if e.Line != "" || e.Pos.Line < 1 || source == "" {
		return e
	}
	lines := strings.Split(source, "\n")
	if e.Pos.Line > len(lines) {
		return e
	}
	e.Line = strings.TrimRight(lines[e.Pos.Line-1], "\r")
	return e
}

// KindOf reports the kind of err when it wraps an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
