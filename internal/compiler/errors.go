package compiler

import (
	"fmt"

	"kiln/internal/diag"
	"kiln/internal/source"
)

// Error is a compilation failure that has already been reported. Callers
// propagate it unchanged.
type Error struct {
	Diag diag.Diagnostic
}

func (e *Error) Error() string {
	return e.Diag.Error()
}

// Code returns the diagnostic code of the failure.
func (e *Error) Code() diag.Code {
	return e.Diag.Code
}

type note struct {
	span source.Span
	msg  string
}

// fail reports an error diagnostic and returns it as an *Error.
func (c *Compiler) fail(code diag.Code, span source.Span, msg string, notes ...note) *Error {
	b := diag.ReportError(c.reporter, code, span, msg)
	for _, n := range notes {
		b.WithNote(n.span, n.msg)
	}
	c.errors++
	return &Error{Diag: b.Emit()}
}

func (c *Compiler) failf(code diag.Code, span source.Span, format string, args ...any) *Error {
	return c.fail(code, span, fmt.Sprintf(format, args...))
}
