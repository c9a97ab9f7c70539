// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassosimone/safeconn"
	"golang.org/x/net/websocket"
)

// NewWebSocketHandshakeFunc returns a new [*WebSocketHandshakeFunc].
func NewWebSocketHandshakeFunc(cfg *Config, logger SLogger) *WebSocketHandshakeFunc {
	return &WebSocketHandshakeFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
		Timeout:       cfg.HandshakeTimeout,
	}
}

// WebSocketHandshakeFunc upgrades a connection to a WebSocket.
//
// The request targets ws://<remoteAddr>/ with an origin derived from the
// remote host. On failure the connection is closed.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type WebSocketHandshakeFunc struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time

	// Timeout bounds the handshake. Zero means no bound other than
	// the context deadline. The socket deadline follows the wall clock,
	// while TimeNow only timestamps the log events.
	Timeout time.Duration
}

var _ Func[net.Conn, *websocket.Conn] = &WebSocketHandshakeFunc{}

// Call performs the handshake over conn.
func (op *WebSocketHandshakeFunc) Call(ctx context.Context, conn net.Conn) (*websocket.Conn, error) {
	raddr := safeconn.RemoteAddr(conn)
	if op.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, op.Timeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()
	t0 := op.TimeNow()
	op.Logger.Info(
		"webSocketHandshakeStart",
		slog.Time("deadline", deadline),
		slog.String("remoteAddr", raddr),
		slog.Time("t", t0),
	)

	ws, err := op.handshake(conn, raddr, deadline)

	op.Logger.Info(
		"webSocketHandshakeDone",
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("remoteAddr", raddr),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ws, nil
}

func (op *WebSocketHandshakeFunc) handshake(conn net.Conn, raddr string, deadline time.Time) (*websocket.Conn, error) {
	host, _, err := net.SplitHostPort(raddr)
	if err != nil {
		host = raddr
	}
	config, err := websocket.NewConfig("ws://"+raddr+"/", "http://"+host+"/")
	if err != nil {
		return nil, err
	}
	if !deadline.IsZero() {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
		defer conn.SetDeadline(time.Time{})
	}
	return websocket.NewClient(config, conn)
}

// NewWebSocketDialer returns a new [*WebSocketDialer].
func NewWebSocketDialer(cfg *Config, logger SLogger) *WebSocketDialer {
	return &WebSocketDialer{
		Connect:   NewConnectFunc(cfg, logger),
		Handshake: NewWebSocketHandshakeFunc(cfg, logger),
		Observe:   NewObserveConnFunc(cfg, logger),
	}
}

// WebSocketDialer is the default [TransportDialer].
//
// It connects, observes the connection, binds it to the context and then
// upgrades it to a WebSocket carrying JSON text frames.
//
// All fields are safe to modify after construction but before first use.
type WebSocketDialer struct {
	// Connect opens the TCP connection.
	Connect Func[netip.AddrPort, net.Conn]

	// Handshake performs the WebSocket upgrade.
	Handshake Func[net.Conn, *websocket.Conn]

	// Observe wraps the connection for I/O logging.
	Observe Func[net.Conn, net.Conn]
}

var _ TransportDialer = &WebSocketDialer{}

// DialTransport implements [TransportDialer].
func (d *WebSocketDialer) DialTransport(ctx context.Context, address netip.AddrPort) (Transport, error) {
	pipeline := Compose5(
		NewEndpointFunc(address),
		d.Connect,
		d.Observe,
		Func[net.Conn, net.Conn](NewCancelWatchFunc()),
		d.Handshake,
	)
	ws, err := pipeline.Call(ctx, Unit{})
	if err != nil {
		return nil, err
	}
	return &webSocketTransport{conn: ws}, nil
}

// webSocketTransport implements [Transport] for a [*websocket.Conn].
type webSocketTransport struct {
	closed    atomic.Bool
	closeonce sync.Once
	conn      *websocket.Conn
	writeMu   sync.Mutex
}

func (t *webSocketTransport) Run(handler TransportHandler) {
	handler.OnOpen()
	for {
		var data []byte
		err := websocket.Message.Receive(t.conn, &data)
		switch {
		case err == nil:
			handler.OnData(data)
			continue
		case t.closed.Load() || errors.Is(err, net.ErrClosed):
			handler.OnClose("close")
		case errors.Is(err, io.EOF):
			handler.OnClose("end")
		default:
			handler.OnError(err)
			handler.OnClose("error")
		}
		t.Close()
		return
	}
}

func (t *webSocketTransport) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return websocket.Message.Send(t.conn, string(data))
}

func (t *webSocketTransport) Close() (err error) {
	err = net.ErrClosed
	t.closeonce.Do(func() {
		t.closed.Store(true)
		err = t.conn.Close()
	})
	return
}
