// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// NewObserveConnFunc returns a new [*ObserveConnFunc].
func NewObserveConnFunc(cfg *Config, logger SLogger) *ObserveConnFunc {
	return &ObserveConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// ObserveConnFunc wraps the listener connection to log its I/O.
//
// Reads and writes are logged at Debug level, which makes it possible to
// inspect the WebSocket frames exchanged with the listener. Close is
// logged at Info level and happens at most once.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type ObserveConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

var _ Func[net.Conn, net.Conn] = &ObserveConnFunc{}

// Call wraps conn and never fails.
func (op *ObserveConnFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	observed := &observedConn{
		Conn: conn,
		op:   op,
		attrs: []any{
			slog.String("localAddr", safeconn.LocalAddr(conn)),
			slog.String("protocol", safeconn.Network(conn)),
			slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		},
	}
	return observed, nil
}

// observedConn logs the I/O of the embedded [net.Conn].
//
// Deadline setters are inherited from the embedded conn unchanged.
type observedConn struct {
	net.Conn
	attrs     []any
	closeonce sync.Once
	op        *ObserveConnFunc
}

func (c *observedConn) with(args ...any) []any {
	return append(append([]any{}, c.attrs...), args...)
}

// Close implements [net.Conn].
//
// Subsequent calls return [net.ErrClosed].
func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeonce.Do(func() {
		t0 := c.op.TimeNow()
		err = c.Conn.Close()
		c.op.Logger.Info("closeDone", c.with(
			slog.Any("err", err),
			slog.String("errClass", c.op.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", c.op.TimeNow()),
		)...)
	})
	return
}

// Read implements [net.Conn].
func (c *observedConn) Read(buf []byte) (int, error) {
	t0 := c.op.TimeNow()
	count, err := c.Conn.Read(buf)
	c.op.Logger.Debug("readDone", c.with(
		slog.Int("ioBufferSize", len(buf)),
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", c.op.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.op.TimeNow()),
	)...)
	return count, err
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	t0 := c.op.TimeNow()
	count, err := c.Conn.Write(data)
	c.op.Logger.Debug("writeDone", c.with(
		slog.Int("ioBufferSize", len(data)),
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", c.op.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.op.TimeNow()),
	)...)
	return count, err
}
