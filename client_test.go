// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"errors"
	"math"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client whose dialer hands out the given transports in order.
func newTestClient(t *testing.T, transports ...*fakeTransport) (*Client, *atomic.Int32) {
	t.Helper()
	cfg, _, _ := newTestConfig()
	client := NewClient(cfg, DefaultSLogger())
	dials := &atomic.Int32{}
	client.Dialer = TransportDialerFunc(func(ctx context.Context, address netip.AddrPort) (Transport, error) {
		idx := int(dials.Add(1)) - 1
		if !assert.Less(t, idx, len(transports)) {
			return nil, errors.New("unexpected dial")
		}
		return transports[idx], nil
	})
	return client, dials
}

// connectAndWait connects and waits for the connection to open.
func connectAndWait(t *testing.T, client *Client, ft *fakeTransport) TransportHandler {
	t.Helper()
	opened := make(chan struct{})
	require.NoError(t, client.Connect(context.Background(), 0, func() { close(opened) }))
	waitClosed(t, opened)
	return waitHandler(t, ft)
}

func TestNewClient(t *testing.T) {
	cfg, _, _ := newTestConfig()
	client := NewClient(cfg, DefaultSLogger())

	require.NotNil(t, client)
	assert.IsType(t, &WebSocketDialer{}, client.Dialer)
	assert.Equal(t, uint16(DefaultPort), client.Port)
	assert.Equal(t, testProcess, client.Process)
	assert.Equal(t, StateDisconnected, client.State())
	assert.False(t, client.Connected())
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", ConnState(42).String())
}

// Connect dials the configured host on the requested or default port.
func TestClientConnectAddress(t *testing.T) {
	tests := []struct {
		name string
		port int
		want string
	}{
		{"default port", 0, "127.0.0.1:55555"},
		{"negative port uses default", -1, "127.0.0.1:55555"},
		{"explicit port", 8080, "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, _ := newTestConfig()
			client := NewClient(cfg, DefaultSLogger())
			addrch := make(chan netip.AddrPort, 1)
			client.Dialer = TransportDialerFunc(func(ctx context.Context, address netip.AddrPort) (Transport, error) {
				addrch <- address
				return nil, errors.New("refused")
			})

			require.NoError(t, client.Connect(context.Background(), tt.port, nil))
			select {
			case addr := <-addrch:
				assert.Equal(t, tt.want, addr.String())
			case <-time.After(5 * time.Second):
				t.Fatal("dialer not called")
			}
		})
	}
}

// A port that does not fit 16 bits is rejected.
func TestClientConnectInvalidPort(t *testing.T) {
	client, dials := newTestClient(t)
	err := client.Connect(context.Background(), 70000, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, StateDisconnected, client.State())
	assert.Equal(t, int32(0), dials.Load())
}

// Connect opens the transport and runs the callback once.
func TestClientConnectOpens(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)

	connectAndWait(t, client, ft)

	assert.True(t, client.Connected())
	assert.Equal(t, StateOpen, client.State())
}

// Connect while connected does nothing.
func TestClientConnectIdempotent(t *testing.T) {
	ft := newFakeTransport()
	client, dials := newTestClient(t, ft)
	connectAndWait(t, client, ft)

	require.NoError(t, client.Connect(context.Background(), 0, nil))
	require.NoError(t, client.Connect(context.Background(), 1234, nil))

	assert.Equal(t, int32(1), dials.Load())
	assert.True(t, client.Connected())
}

// The welcome message gets exactly one processinfo reply.
func TestClientHandshake(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)
	handler := connectAndWait(t, client, ft)

	handler.OnData([]byte(`{"a":"welcome"}`))

	sent := ft.Sent()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{
		"a": "processinfo",
		"name": "worker (worker)",
		"os": "linux",
		"file": "/srv/app/bin/worker"
	}`, string(sent[0]))

	// Other messages, malformed data and repeated welcomes are ignored.
	handler.OnData([]byte(`{"a":"other"}`))
	handler.OnData([]byte(`not json`))
	handler.OnData([]byte(`{"a":"welcome"}`))
	assert.Len(t, ft.Sent(), 1)
	assert.True(t, client.Connected())
}

// Records are sent only while the connection is open.
func TestClientSend(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)

	client.Send(map[string]string{"before": "open"})
	assert.Empty(t, ft.Sent())

	handler := connectAndWait(t, client, ft)
	client.Send(map[string]string{"k": "v"})
	require.Len(t, ft.Sent(), 1)
	assert.JSONEq(t, `{"k":"v"}`, string(ft.Sent()[0]))

	handler.OnClose("end")
	assert.False(t, client.Connected())
	assert.Equal(t, StateDisconnected, client.State())
	assert.Equal(t, 1, ft.CloseCount())

	assert.NotPanics(t, func() { client.Send(map[string]string{"after": "close"}) })
	assert.Len(t, ft.Sent(), 1)
}

// A socket error flips the client to disconnected and is logged.
func TestClientTransportError(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)
	logger, messages := newSyncCapturingLogger()
	client.Logger = logger
	handler := connectAndWait(t, client, ft)

	handler.OnError(errors.New("connection reset"))
	handler.OnClose("error")

	assert.False(t, client.Connected())
	assert.Contains(t, messages.Messages(), "transportError")
	assert.NotContains(t, messages.Messages(), "transportClose")
}

// A failing write is treated like a socket error.
func TestClientSendError(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)
	connectAndWait(t, client, ft)

	ft.mu.Lock()
	ft.sendErr = errors.New("broken pipe")
	ft.mu.Unlock()

	client.Send("x")
	assert.False(t, client.Connected())
	assert.Equal(t, 1, ft.CloseCount())
}

// A message that cannot be encoded is dropped and the connection stays open.
func TestClientSendEncodingError(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)
	logger, messages := newSyncCapturingLogger()
	client.Logger = logger
	connectAndWait(t, client, ft)

	client.Send(map[string]any{"x": math.NaN()})
	client.Send(map[string]any{"f": func() {}})

	assert.True(t, client.Connected())
	assert.Empty(t, ft.Sent())
	assert.Equal(t, 0, ft.CloseCount())
	assert.Contains(t, messages.Messages(), "transportSendSkipped")
	assert.NotContains(t, messages.Messages(), "transportError")

	client.Send(map[string]int{"n": 1})
	require.Len(t, ft.Sent(), 1)
	assert.JSONEq(t, `{"n":1}`, string(ft.Sent()[0]))
}

// A dial failure is logged and the client can connect again.
func TestClientDialError(t *testing.T) {
	cfg, _, _ := newTestConfig()
	client := NewClient(cfg, DefaultSLogger())
	logger, messages := newSyncCapturingLogger()
	client.Logger = logger
	client.Dialer = TransportDialerFunc(func(ctx context.Context, address netip.AddrPort) (Transport, error) {
		return nil, errors.New("connection refused")
	})

	require.NoError(t, client.Connect(context.Background(), 0, nil))

	assert.Eventually(t, func() bool {
		for _, msg := range messages.Messages() {
			if msg == "transportError" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateDisconnected, client.State())
	assert.Equal(t, "transportConnectStart", messages.Messages()[0])
}

// After a disconnect, Connect opens a new connection and events from
// the old one no longer affect the client.
func TestClientReconnectIgnoresStaleEvents(t *testing.T) {
	ft1, ft2 := newFakeTransport(), newFakeTransport()
	client, dials := newTestClient(t, ft1, ft2)

	old := connectAndWait(t, client, ft1)
	old.OnClose("end")
	require.False(t, client.Connected())

	current := connectAndWait(t, client, ft2)
	assert.Equal(t, int32(2), dials.Load())

	old.OnData([]byte(`{"a":"welcome"}`))
	old.OnClose("end")
	old.OnError(errors.New("late"))
	assert.Empty(t, ft1.Sent())
	assert.True(t, client.Connected())

	// The new connection gets its own handshake.
	current.OnData([]byte(`{"a":"welcome"}`))
	assert.Len(t, ft2.Sent(), 1)
}

// Close is final.
func TestClientClose(t *testing.T) {
	ft := newFakeTransport()
	client, _ := newTestClient(t, ft)
	handler := connectAndWait(t, client, ft)

	require.NoError(t, client.Close())
	assert.Equal(t, StateClosed, client.State())
	assert.Equal(t, 1, ft.CloseCount())

	// Late events from the closed transport are ignored.
	handler.OnClose("close")
	assert.Equal(t, StateClosed, client.State())

	require.ErrorIs(t, client.Close(), net.ErrClosed)
	require.ErrorIs(t, client.Connect(context.Background(), 0, nil), net.ErrClosed)
	client.Send("x")
	assert.Empty(t, ft.Sent())
}

// Closing while dialing discards the transport once it arrives.
func TestClientCloseWhileConnecting(t *testing.T) {
	ft := newFakeTransport()
	cfg, _, _ := newTestConfig()
	client := NewClient(cfg, DefaultSLogger())
	release := make(chan struct{})
	dialed := make(chan struct{})
	client.Dialer = TransportDialerFunc(func(ctx context.Context, address netip.AddrPort) (Transport, error) {
		<-release
		defer close(dialed)
		return ft, nil
	})

	opened := false
	require.NoError(t, client.Connect(context.Background(), 0, func() { opened = true }))
	assert.Equal(t, StateConnecting, client.State())

	require.NoError(t, client.Close())
	close(release)
	waitClosed(t, dialed)

	assert.Eventually(t, func() bool {
		return ft.CloseCount() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateClosed, client.State())
	assert.False(t, opened)
}
