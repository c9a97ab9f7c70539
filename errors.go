// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes an [*Error].
type ErrorKind string

const (
	// KindInvalidOverride indicates that a non-callable value was assigned
	// to a method slot, or that the slot does not exist.
	KindInvalidOverride ErrorKind = "LogMethodError"

	// KindDuplicateMethod indicates an attempt to redefine an existing method.
	KindDuplicateMethod ErrorKind = "DuplicateLogMethodError"

	// KindInvalidArgument indicates a malformed argument, such as a
	// non-string where a level name is required.
	KindInvalidArgument ErrorKind = "InvalidArgumentError"

	// KindMethodNotFound indicates a call to a method that was never registered.
	KindMethodNotFound ErrorKind = "MethodNotFoundError"

	// KindTransport indicates a socket-level failure. These errors are
	// logged by [*Client] and never returned from logging calls.
	KindTransport ErrorKind = "TransportError"
)

// Error is the error type returned by this package.
//
// Cause and Help are meant for the developer reading the message, not
// for programmatic inspection. Use [errors.Is] with the sentinel values
// (e.g., [ErrDuplicateMethod]) to test the kind.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Name is a human readable name for the kind.
	Name string

	// Message describes what went wrong.
	Message string

	// Cause explains the usual reason for the error.
	Cause string

	// Help suggests how to fix the error.
	Help string

	// Err is the optional underlying error.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an [*Error] with the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel errors for use with [errors.Is].
var (
	ErrInvalidOverride = &Error{Kind: KindInvalidOverride}
	ErrDuplicateMethod = &Error{Kind: KindDuplicateMethod}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrMethodNotFound  = &Error{Kind: KindMethodNotFound}
	ErrTransport       = &Error{Kind: KindTransport}
)

func newInvalidOverrideError(method string) *Error {
	return &Error{
		Kind:    KindInvalidOverride,
		Name:    "Logging Method Error",
		Message: method + " does not exist or could not be found",
		Cause:   "A method override was assigned a value that is not an Override function.",
		Help: "Make sure the value assigned to a logging method is an Override. Acceptable methods include: " +
			strings.Join(BaseMethods(), ","),
	}
}

func newDuplicateMethodError(name string) *Error {
	return &Error{
		Kind:    KindDuplicateMethod,
		Name:    "Duplicate Logging Method Error",
		Message: fmt.Sprintf("the method %q cannot be redefined: this method already exists", name),
		Cause:   "An attempt to define or redefine a custom method conflicts with an existing method.",
		Help: "This is usually the result of redefining a custom method or overriding a native method (" +
			strings.Join(BaseMethods(), ",") + ").",
	}
}

func newInvalidArgumentError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Name:    "Invalid Argument Error",
		Message: fmt.Sprintf(format, args...),
		Cause:   "A value of the wrong type or range was provided.",
		Help:    "Levels must be strings, lists of strings, or booleans. Ports must be in 1..65535.",
	}
}

func newMethodNotFoundError(name string) *Error {
	return &Error{
		Kind:    KindMethodNotFound,
		Name:    "Method Not Found Error",
		Message: fmt.Sprintf("the method %q is not registered", name),
		Cause:   "A custom method was invoked before being added.",
		Help:    "Register the method with AddCustomLoggingMethod before calling it.",
	}
}

func newTransportError(err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Name:    "Transport Error",
		Message: "remote listener connection failed",
		Cause:   "The debugging listener is unreachable or closed the connection.",
		Help:    "Start the listener and call Connect again; log calls keep working locally meanwhile.",
		Err:     err,
	}
}
