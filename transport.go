// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"net/netip"
)

// TransportHandler receives the events of a [Transport].
//
// A transport delivers events from a single goroutine, in this order:
// OnOpen once, OnData for every inbound message, then either OnClose or
// OnError followed by OnClose.
type TransportHandler interface {
	// OnOpen is called when the connection is ready for writing.
	OnOpen()

	// OnData is called with the payload of each inbound message.
	OnData(data []byte)

	// OnClose is called when the connection ends. The reason is "end"
	// when the peer closed it, "close" when it was closed locally, and
	// "error" after OnError.
	OnClose(reason string)

	// OnError is called on socket-level failures.
	OnError(err error)
}

// Transport is an established duplex connection carrying JSON messages.
//
// The [*Client] owns the transport and never exposes it.
type Transport interface {
	// Run emits events to handler until the connection ends.
	Run(handler TransportHandler)

	// Send encodes msg as JSON and writes it. Safe for concurrent use.
	Send(msg any) error

	// Close closes the connection. Safe to call more than once.
	Close() error
}

// TransportDialer establishes a [Transport] to the listener.
//
// The context bounds the lifetime of the returned transport.
type TransportDialer interface {
	DialTransport(ctx context.Context, address netip.AddrPort) (Transport, error)
}

// TransportDialerFunc adapts a function to the [TransportDialer] interface.
type TransportDialerFunc func(ctx context.Context, address netip.AddrPort) (Transport, error)

var _ TransportDialer = TransportDialerFunc(nil)

// DialTransport implements [TransportDialer].
func (f TransportDialerFunc) DialTransport(ctx context.Context, address netip.AddrPort) (Transport, error) {
	return f(ctx, address)
}
