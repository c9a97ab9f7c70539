// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"net"
)

// NewCancelWatchFunc returns a new [*CancelWatchFunc].
func NewCancelWatchFunc() *CancelWatchFunc {
	return &CancelWatchFunc{}
}

// CancelWatchFunc closes the connection when the context is done.
//
// [*Client.Connect] passes its context down the dial pipeline, so the
// context given to Connect bounds the lifetime of the connection: when it
// is cancelled, the socket is closed and the client reports a disconnect.
//
// Closing the returned connection unregisters the watcher, so no goroutine
// leaks when the context is never cancelled.
type CancelWatchFunc struct{}

var _ Func[net.Conn, net.Conn] = &CancelWatchFunc{}

// Call registers a [context.AfterFunc] closing conn and never fails.
func (op *CancelWatchFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}, nil
}

type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

// Close unregisters the watcher and closes the underlying connection.
func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
