// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"io"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// DefaultPort is the port of the debugging listener.
const DefaultPort = 55555

// DefaultHandshakeTimeout bounds the WebSocket upgrade.
const DefaultHandshakeTimeout = 10 * time.Second

// Config holds common configuration for lanconsole types.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig]. Use
// [*Settings.Apply] to override them from a file or the environment.
type Config struct {
	// Dialer is used by [*ConnectFunc].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// HandshakeTimeout bounds the WebSocket upgrade with the listener.
	//
	// Set by [NewConfig] to [DefaultHandshakeTimeout].
	HandshakeTimeout time.Duration

	// Host is the address of the debugging listener.
	//
	// Set by [NewConfig] to 127.0.0.1.
	Host netip.Addr

	// Level selects which levels the [*Console] processes.
	//
	// Set by [NewConfig] to [LevelAll].
	Level LevelSpec

	// Port is the default port used by [*Client.Connect].
	//
	// Set by [NewConfig] to [DefaultPort].
	Port uint16

	// Process describes this program to the listener.
	//
	// Set by [NewConfig] to [DefaultProcessInfo].
	Process ProcessInfo

	// Stderr receives error output.
	//
	// Set by [NewConfig] to [os.Stderr].
	Stderr io.Writer

	// Stdout receives regular output.
	//
	// Set by [NewConfig] to [os.Stdout].
	Stdout io.Writer

	// Stream controls whether processed calls are streamed.
	//
	// Set by [NewConfig] to [LevelAll].
	Stream LevelSpec

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time

	// UseColor enables ANSI colors for error, warn, info and debug output.
	//
	// Set by [NewConfig] to true when stdout is a terminal.
	UseColor bool
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:           &net.Dialer{},
		ErrClassifier:    DefaultErrClassifier,
		HandshakeTimeout: DefaultHandshakeTimeout,
		Host:             netip.AddrFrom4([4]byte{127, 0, 0, 1}),
		Level:            LevelAll(),
		Port:             DefaultPort,
		Process:          DefaultProcessInfo(),
		Stderr:           os.Stderr,
		Stdout:           os.Stdout,
		Stream:           LevelAll(),
		TimeNow:          time.Now,
		UseColor:         isatty.IsTerminal(os.Stdout.Fd()),
	}
}
