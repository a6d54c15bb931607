package catcher

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrPanic matches every *Error with errors.Is.
var ErrPanic = errors.New("panic recovered")

// Kind classifies a recovered panic value.
type Kind string

// Kinds of recovered panic values.
const (
	KindException Kind = "exception"
	KindRuntime   Kind = "runtime"
	KindError     Kind = "error"
	KindValue     Kind = "value"
)

// Named is implemented by panic values that carry their own name and reason.
// *Exception implements it. A value with only a Name method is not enough.
type Named interface {
	Name() string
	Reason() string
}

// Error describes a panic trapped at the boundary.
// Use errors.As(err, &cerr) to inspect the fields, or errors.Is/As against the
// original value when the panic carried an error.
type Error struct {
	Kind   Kind
	Name   string
	Reason string
	Value  any
	Stack  []byte
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Name
	}
	return e.Name + ": " + e.Reason
}

// Unwrap returns the panic value when it is an error.
func (e *Error) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Is reports ErrPanic as matching every trapped panic.
func (e *Error) Is(target error) bool {
	return target == ErrPanic
}

// newError classifies the recovered value. Name is never empty: it falls back
// to the dynamic type of the value. Methods of v run under guarded so a value
// whose Name, Reason, Error or String panics (typically a nil receiver) cannot
// escape the boundary.
func newError(v any, stack []byte) *Error {
	e := &Error{
		Name:   fmt.Sprintf("%T", v),
		Reason: reason(v),
		Value:  v,
		Stack:  stack,
	}

	switch val := v.(type) {
	case Named:
		e.Kind = KindException
		if name, ok := guarded(val.Name); ok && name != "" {
			e.Name = name
		}
	case runtime.Error:
		e.Kind = KindRuntime
	case error:
		e.Kind = KindError
	default:
		e.Kind = KindValue
	}

	return e
}

func reason(v any) string {
	var method func() string
	switch val := v.(type) {
	case Named:
		method = val.Reason
	case error:
		method = val.Error
	case fmt.Stringer:
		method = val.String
	case string:
		return val
	}

	if method != nil {
		if s, ok := guarded(method); ok {
			return s
		}
	}
	// fmt recovers panics raised by Error and String methods.
	return fmt.Sprint(v)
}

// guarded calls method and reports false if it panicked.
func guarded(method func() string) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	return method(), true
}
