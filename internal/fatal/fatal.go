// Package fatal reports unrecoverable invariant violations.
//
// Per-trial computation is exception-free: numerical overflow and
// geometry violations never reach here. Only a broken invariant (a cell
// list disagreeing with site positions, an energy check failing, a
// checkpoint with a mismatched version) aborts the process, and it does
// so with a message naming the offending class and method so the failure
// is reproducible from the log alone.
package fatal

import "fmt"

// Error is a fatal invariant violation. Callers panic with it; the
// driver (cmd/fhmc) recovers at the top level only to print the message
// and exit non-zero, it never continues the simulation.
type Error struct {
	Class   string
	Method  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s::%s: %s", e.Class, e.Method, e.Message)
}

// Raise panics with a formatted invariant violation.
func Raise(class, method, format string, args ...any) {
	panic(&Error{Class: class, Method: method, Message: fmt.Sprintf(format, args...)})
}

// Assert raises when cond is false.
func Assert(cond bool, class, method, format string, args ...any) {
	if !cond {
		Raise(class, method, format, args...)
	}
}
