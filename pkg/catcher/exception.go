package catcher

import "fmt"

// Exception is a named panic value. Raising one lets callers choose the Name
// reported by the boundary instead of the Go type of the value.
type Exception struct {
	name   string
	reason string
}

// NewException returns an Exception with the given name and reason.
func NewException(name, reason string) *Exception {
	return &Exception{name: name, reason: reason}
}

// Raise panics with a new Exception. The reason is formatted with fmt.Sprintf.
func Raise(name, format string, args ...any) {
	panic(NewException(name, fmt.Sprintf(format, args...)))
}

// Name returns the exception name.
func (e *Exception) Name() string { return e.name }

// Reason returns the exception reason.
func (e *Exception) Reason() string { return e.reason }

func (e *Exception) Error() string {
	if e.reason == "" {
		return e.name
	}
	return e.name + ": " + e.reason
}
