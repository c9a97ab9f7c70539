// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogMethod(t *testing.T) {
	assert.Equal(t, MethodDebug, slogMethod(slog.LevelDebug))
	assert.Equal(t, MethodDebug, slogMethod(slog.LevelDebug-4))
	assert.Equal(t, MethodInfo, slogMethod(slog.LevelInfo))
	assert.Equal(t, MethodInfo, slogMethod(slog.LevelInfo+1))
	assert.Equal(t, MethodWarn, slogMethod(slog.LevelWarn))
	assert.Equal(t, MethodError, slogMethod(slog.LevelError))
	assert.Equal(t, MethodError, slogMethod(slog.LevelError+4))
}

// Records are emitted with the level name as both tag and method.
func TestSlogHandlerHandle(t *testing.T) {
	console, sink, streamer := newTestConsole(t)
	logger := slog.New(NewSlogHandler(console))

	logger.Warn("disk almost full", slog.Int("percent", 93))
	logger.Info("no attributes")

	require.Len(t, sink.calls, 2)
	assert.Equal(t, MethodWarn, sink.calls[0].Method)
	assert.Equal(t, []any{"disk almost full", map[string]any{"percent": int64(93)}}, sink.calls[0].Args)
	assert.Equal(t, []any{"no attributes"}, sink.calls[1].Args)

	rec := sentRecord(t, streamer, 0)
	require.NotNil(t, rec.Level)
	assert.Equal(t, "warn", *rec.Level)
	assert.Equal(t, "warn", rec.Type)
}

// Enabled follows the console level filter.
func TestSlogHandlerEnabled(t *testing.T) {
	console, sink, _ := newTestConsole(t)
	console.SetLevel(LevelSet("warn", "error"))
	handler := NewSlogHandler(console)

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(handler)
	logger.Info("dropped")
	logger.Error("kept")
	require.Len(t, sink.calls, 1)
	assert.Equal(t, MethodError, sink.calls[0].Method)
}

// WithAttrs and WithGroup produce nested maps.
func TestSlogHandlerAttrsAndGroups(t *testing.T) {
	console, sink, _ := newTestConsole(t)
	logger := slog.New(NewSlogHandler(console)).
		With("service", "api").
		WithGroup("req").
		With("id", "r1")

	logger.Info("served", slog.Int("status", 200), slog.Group("peer", slog.String("ip", "127.0.0.1")))

	require.Len(t, sink.calls, 1)
	assert.Equal(t, []any{"served", map[string]any{
		"service": "api",
		"req": map[string]any{
			"id":     "r1",
			"status": int64(200),
			"peer":   map[string]any{"ip": "127.0.0.1"},
		},
	}}, sink.calls[0].Args)
}

// An empty group name is ignored and empty attributes are dropped.
func TestSlogHandlerEdgeCases(t *testing.T) {
	console, sink, _ := newTestConsole(t)
	handler := NewSlogHandler(console)
	assert.Same(t, handler, handler.WithGroup(""))

	logger := slog.New(handler)
	logger.Info("msg", slog.Attr{}, slog.Group("", slog.String("inline", "yes")))

	require.Len(t, sink.calls, 1)
	assert.Equal(t, []any{"msg", map[string]any{"inline": "yes"}}, sink.calls[0].Args)
}
