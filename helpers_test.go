// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// messageLog collects log messages from several goroutines.
type messageLog struct {
	mu       sync.Mutex
	messages []string
}

// Messages returns a copy of the messages collected so far.
func (ml *messageLog) Messages() []string {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return append([]string{}, ml.messages...)
}

// newSyncCapturingLogger is like newCapturingLogger but safe to use when
// the code under test logs from background goroutines.
func newSyncCapturingLogger() (*slog.Logger, *messageLog) {
	ml := &messageLog{}
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			ml.mu.Lock()
			ml.messages = append(ml.messages, record.Message)
			ml.mu.Unlock()
			return nil
		},
	}
	return slog.New(handler), ml
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// testProcess is the [ProcessInfo] used by tests.
var testProcess = ProcessInfo{
	Title:    "worker",
	Script:   "/srv/app/bin/worker",
	Platform: "linux",
}

// testTime is the fixed time returned by newTestConfig's TimeNow.
var testTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// newTestConfig returns a [*Config] writing to buffers, without colors,
// with a fixed clock and process description.
func newTestConfig() (*Config, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cfg := NewConfig()
	cfg.Process = testProcess
	cfg.Stderr = stderr
	cfg.Stdout = stdout
	cfg.TimeNow = func() time.Time { return testTime }
	cfg.UseColor = false
	return cfg, stdout, stderr
}

// sinkCall is a call observed by recordingSink.
type sinkCall struct {
	Method string
	Args   []any
}

// recordingSink is a [Sink] remembering every call.
type recordingSink struct {
	calls []sinkCall
}

func (s *recordingSink) Output(method string, args ...any) {
	s.calls = append(s.calls, sinkCall{Method: method, Args: args})
}

// fakeStreamer is a [Streamer] remembering every message.
type fakeStreamer struct {
	connected bool
	sent      []any
}

func (s *fakeStreamer) Connected() bool {
	return s.connected
}

func (s *fakeStreamer) Send(msg any) {
	s.sent = append(s.sent, msg)
}

// fakeTransport is a [Transport] whose events are driven by the test.
//
// Run emits OnOpen and then hands the handler to the test through the
// handlers channel, so the test can deliver further events synchronously.
type fakeTransport struct {
	closeCount int
	handlers   chan TransportHandler
	mu         sync.Mutex
	sendErr    error
	sent       []json.RawMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(chan TransportHandler, 1)}
}

func (t *fakeTransport) Run(handler TransportHandler) {
	handler.OnOpen()
	t.handlers <- handler
}

func (t *fakeTransport) Send(msg any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t.sent = append(t.sent, data)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCount++
	return nil
}

// Sent returns a copy of the messages sent so far.
func (t *fakeTransport) Sent() []json.RawMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]json.RawMessage{}, t.sent...)
}

// CloseCount returns how many times Close was called.
func (t *fakeTransport) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCount
}

// waitHandler waits for the transport to hand over its handler.
func waitHandler(t *testing.T, ft *fakeTransport) TransportHandler {
	t.Helper()
	select {
	case h := <-ft.handlers:
		return h
	case <-time.After(5 * time.Second):
		t.Fatal("transport was not run")
		return nil
	}
}

// waitClosed waits for ch to be closed.
func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting")
	}
}

// startListener starts a WebSocket listener on the loopback interface and
// returns its port. The server is closed when the test ends.
func startListener(t *testing.T, handler func(ws *websocket.Conn)) int {
	t.Helper()
	srv := httptest.NewServer(websocket.Handler(handler))
	t.Cleanup(srv.Close)
	addr, ok := srv.Listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.Port
}
