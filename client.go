// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/bassosimone/runtimex"
)

// ConnState is the state of the [*Client] connection.
type ConnState int

const (
	// StateDisconnected means there is no connection. Connect may be called.
	StateDisconnected ConnState = iota

	// StateConnecting means a connection attempt is in progress.
	StateConnecting

	// StateOpen means the connection is established and Send writes to it.
	StateOpen

	// StateClosed means [*Client.Close] was called. This state is final.
	StateClosed
)

// String implements [fmt.Stringer].
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// HandshakeReply is sent to the listener in response to its welcome message.
type HandshakeReply struct {
	A    string `json:"a"`
	Name string `json:"name"`
	OS   string `json:"os"`
	File string `json:"file"`
}

// inboundMessage is the part of listener messages the client understands.
type inboundMessage struct {
	A string `json:"a"`
}

// NewClient returns a new disconnected [*Client].
//
// Construct a single client at program start and share it with every
// [*Console] that should stream to the listener.
func NewClient(cfg *Config, logger SLogger) *Client {
	runtimex.Assert(cfg != nil)
	return &Client{
		Dialer:        NewWebSocketDialer(cfg, logger),
		ErrClassifier: cfg.ErrClassifier,
		Host:          cfg.Host,
		Logger:        logger,
		Port:          cfg.Port,
		Process:       cfg.Process,
		TimeNow:       cfg.TimeNow,
	}
}

// Client owns the connection to the debugging listener.
//
// Connecting is asynchronous: [*Client.Connect] returns immediately and the
// connection opens in the background. Until it is open, [*Client.Send] is a
// no-op. Transport failures are logged and flip the client back to
// [StateDisconnected]; they never reach the caller.
//
// When the listener sends {"a":"welcome"}, the client replies once per
// connection with a [HandshakeReply] describing the process.
//
// The exported fields are safe to modify after construction but before the
// first call to Connect. The methods are safe for concurrent use.
type Client struct {
	// Dialer establishes the transport.
	Dialer TransportDialer

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Host is the listener address.
	Host netip.Addr

	// Logger is the [SLogger] to use.
	Logger SLogger

	// Port is used when Connect is called with a non-positive port.
	Port uint16

	// Process is sent to the listener during the handshake.
	Process ProcessInfo

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time

	address   netip.AddrPort
	connID    string
	gen       uint64
	mu        sync.Mutex
	onOpen    func()
	state     ConnState
	t0        time.Time
	transport Transport
	welcomed  bool
}

// Connect starts connecting to the listener on the given port.
//
// A non-positive port selects the Port field. The onOpen callback, if not
// nil, runs once the connection is open. The ctx bounds the lifetime of the
// connection: cancelling it closes the socket.
//
// Calling Connect while connecting or connected does nothing and returns
// nil; the port argument is ignored in that case. Calling Connect after
// [*Client.Close] returns [net.ErrClosed]. A port above 65535 fails
// with [ErrInvalidArgument].
func (c *Client) Connect(ctx context.Context, port int, onOpen func()) error {
	if port > 65535 {
		return newInvalidArgumentError("port %d is out of range", port)
	}
	if port <= 0 {
		port = int(c.Port)
	}

	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return net.ErrClosed
	case StateConnecting, StateOpen:
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	c.address = netip.AddrPortFrom(c.Host, uint16(port))
	c.connID = NewConnID()
	c.onOpen = onOpen
	c.state = StateConnecting
	c.t0 = c.TimeNow()
	c.welcomed = false
	address, connID, t0 := c.address, c.connID, c.t0
	c.mu.Unlock()

	c.Logger.Info(
		"transportConnectStart",
		slog.String("connID", connID),
		slog.String("remoteAddr", address.String()),
		slog.Time("t", t0),
	)
	go c.run(ctx, gen, address)
	return nil
}

func (c *Client) run(ctx context.Context, gen uint64, address netip.AddrPort) {
	transport, err := c.Dialer.DialTransport(ctx, address)
	events := &clientEvents{c: c, gen: gen}
	if err != nil {
		events.OnError(err)
		return
	}

	c.mu.Lock()
	if c.gen != gen || c.state != StateConnecting {
		c.mu.Unlock()
		transport.Close()
		return
	}
	c.transport = transport
	c.mu.Unlock()

	transport.Run(events)
}

// Send writes msg as JSON if the connection is open, and does nothing otherwise.
//
// A msg that cannot be encoded is logged and dropped. Only write failures
// disconnect the client.
func (c *Client) Send(msg any) {
	c.mu.Lock()
	transport, gen, open := c.transport, c.gen, c.state == StateOpen
	c.mu.Unlock()
	if !open {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.Logger.Debug(
			"transportSendSkipped",
			slog.Any("err", err),
			slog.Time("t", c.TimeNow()),
		)
		return
	}
	if err := transport.Send(json.RawMessage(data)); err != nil {
		(&clientEvents{c: c, gen: gen}).OnError(err)
	}
}

// Connected reports whether the connection is open.
func (c *Client) Connected() bool {
	return c.State() == StateOpen
}

// State returns the current [ConnState].
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close closes the connection and moves the client to [StateClosed].
//
// Subsequent calls return [net.ErrClosed].
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return net.ErrClosed
	}
	transport := c.transport
	c.gen++
	c.state = StateClosed
	c.transport = nil
	c.mu.Unlock()

	if transport != nil {
		transport.Close()
	}
	return nil
}

// clientEvents is the [TransportHandler] of a single connection attempt.
//
// Events carrying a stale generation belong to a replaced or closed
// connection and are dropped.
type clientEvents struct {
	c   *Client
	gen uint64
}

var _ TransportHandler = &clientEvents{}

// lockCurrent acquires the client lock and reports whether the events
// still belong to the current connection. On false the lock is released.
func (e *clientEvents) lockCurrent() bool {
	e.c.mu.Lock()
	if e.c.gen != e.gen {
		e.c.mu.Unlock()
		return false
	}
	return true
}

func (e *clientEvents) OnOpen() {
	c := e.c
	if !e.lockCurrent() {
		return
	}
	c.state = StateOpen
	onOpen, connID, address, t0 := c.onOpen, c.connID, c.address, c.t0
	c.onOpen = nil
	c.mu.Unlock()

	c.Logger.Info(
		"transportOpen",
		slog.String("connID", connID),
		slog.String("remoteAddr", address.String()),
		slog.Time("t0", t0),
		slog.Time("t", c.TimeNow()),
	)
	if onOpen != nil {
		onOpen()
	}
}

func (e *clientEvents) OnData(data []byte) {
	c := e.c
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.A != "welcome" {
		c.Logger.Debug(
			"transportDataIgnored",
			slog.Int("ioBytesCount", len(data)),
			slog.Any("err", err),
			slog.Time("t", c.TimeNow()),
		)
		return
	}

	if !e.lockCurrent() {
		return
	}
	if c.welcomed || c.state != StateOpen {
		c.mu.Unlock()
		return
	}
	c.welcomed = true
	transport, connID := c.transport, c.connID
	c.mu.Unlock()

	reply := &HandshakeReply{
		A:    "processinfo",
		Name: c.Process.Name(),
		OS:   c.Process.Platform,
		File: c.Process.Script,
	}
	err := transport.Send(reply)
	c.Logger.Info(
		"transportHandshakeReply",
		slog.String("connID", connID),
		slog.Any("err", err),
		slog.String("errClass", c.ErrClassifier.Classify(err)),
		slog.String("name", reply.Name),
		slog.Time("t", c.TimeNow()),
	)
	if err != nil {
		e.OnError(err)
	}
}

func (e *clientEvents) OnClose(reason string) {
	c := e.c
	if !e.lockCurrent() {
		return
	}
	transport, connID := c.transport, c.connID
	c.state = StateDisconnected
	c.transport = nil
	c.gen++
	c.mu.Unlock()

	c.Logger.Info(
		"transportClose",
		slog.String("connID", connID),
		slog.String("reason", reason),
		slog.Time("t", c.TimeNow()),
	)
	if transport != nil {
		transport.Close()
	}
}

func (e *clientEvents) OnError(err error) {
	c := e.c
	if !e.lockCurrent() {
		return
	}
	transport, connID, address := c.transport, c.connID, c.address
	c.state = StateDisconnected
	c.transport = nil
	c.gen++
	c.mu.Unlock()

	terr := newTransportError(err)
	c.Logger.Info(
		"transportError",
		slog.String("connID", connID),
		slog.Any("err", terr),
		slog.String("errClass", c.ErrClassifier.Classify(err)),
		slog.String("remoteAddr", address.String()),
		slog.Time("t", c.TimeNow()),
	)
	if transport != nil {
		transport.Close()
	}
}
