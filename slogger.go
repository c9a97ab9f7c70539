// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

// SLogger abstracts the [*slog.Logger] behavior.
//
// This is the logger lanconsole uses to report on its own operation, not
// the output of [*Console]. Do not point it back at a [*SlogHandler] wired
// to the same console, since that would loop.
//
// This package uses two log levels:
//   - Info for connection lifecycle events (connect, open, handshake,
//     close, error) and contained override failures
//   - Debug for per-I/O events and ignored inbound messages
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger] to use.
//
// The default is a no-op logger that discards all output.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {}
