// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bassosimone/runtimex"
)

// Streamer is the part of [*Client] used by [*Console].
//
// The console only reads the connection state and sends records.
type Streamer interface {
	Connected() bool
	Send(msg any)
}

var _ Streamer = &Client{}

// NewConsole returns a new [*Console].
//
// The streamer argument is usually the process-wide [*Client]. It may be
// nil to disable streaming entirely.
func NewConsole(cfg *Config, streamer Streamer, logger SLogger) *Console {
	runtimex.Assert(cfg != nil)
	return &Console{
		Logger:   logger,
		Process:  cfg.Process,
		Sink:     NewStdSink(cfg),
		Stdout:   cfg.Stdout,
		Streamer: streamer,
		TimeNow:  cfg.TimeNow,
		filter:   NewLevelFilter(cfg.Level),
		registry: NewMethodRegistry(),
		stream:   cfg.Stream,
		useColor: cfg.UseColor,
	}
}

// Console intercepts output calls.
//
// Each call goes through these steps, in order:
//
//  1. the level filter: a call whose level is not selected is dropped
//     without output, streaming or override invocation;
//  2. the override of the method, if any: returning false stops here;
//  3. streaming of a [Record], when the streamer is connected and the
//     stream setting is enabled;
//  4. the [Sink], or a "Flow:" line for the io method.
//
// A panic inside an override is recovered and logged, and the call
// continues as if the override returned true. Streaming failures never
// prevent the sink from being reached.
//
// The exported fields are safe to modify after construction but before
// first use. The methods are safe for concurrent use.
type Console struct {
	// Logger is the [SLogger] for contained failures.
	Logger SLogger

	// Process is copied into every [Record].
	Process ProcessInfo

	// Sink receives the output.
	Sink Sink

	// Stdout receives the lines of the io method.
	Stdout io.Writer

	// Streamer receives the records. It may be nil.
	Streamer Streamer

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time

	filter   *LevelFilter
	mu       sync.Mutex
	pending  *string
	registry *MethodRegistry
	stream   LevelSpec
	useColor bool
}

// Level returns the [LevelSpec] selecting the processed levels.
func (c *Console) Level() LevelSpec {
	return c.filter.Spec()
}

// SetLevel replaces the [LevelSpec] selecting the processed levels.
//
// Only the cached decisions for the levels named by spec are evicted.
func (c *Console) SetLevel(spec LevelSpec) {
	c.filter.SetSpec(spec)
}

// ShouldProcess reports whether a call at the given level is processed.
func (c *Console) ShouldProcess(level string) bool {
	return c.filter.ShouldProcess(level)
}

// Stream returns the stream setting.
func (c *Console) Stream() LevelSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// SetStream replaces the stream setting. Streaming is off when the spec
// is "none", an empty set or false (see [LevelSpec.Enabled]).
func (c *Console) SetStream(spec LevelSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stream = spec
}

// UseColor reports whether ANSI colors are enabled.
func (c *Console) UseColor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useColor
}

// SetUseColor enables or disables ANSI colors.
func (c *Console) SetUseColor(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useColor = enabled
}

// SetOverride installs the override of a base method. See [*MethodRegistry.Set].
func (c *Console) SetOverride(method string, value any) error {
	return c.registry.Set(method, value)
}

// Override returns the override of a base method, if any.
func (c *Console) Override(method string) (Override, bool) {
	return c.registry.Get(method)
}

// AddCustomLoggingMethod registers a method invoked through [*Console.Call].
//
// For example:
//
//	c.AddCustomLoggingMethod("critical", func(c *Console, args ...any) {
//		c.Emit("critical", MethodLog, args...)
//	})
//
// Names of base methods, console settings and already added methods
// fail with [ErrDuplicateMethod].
func (c *Console) AddCustomLoggingMethod(name string, fn CustomMethod) error {
	return c.registry.AddCustom(name, fn)
}

// Call invokes a custom method, failing with [ErrMethodNotFound]
// when name was never added.
func (c *Console) Call(name string, args ...any) error {
	fn, found := c.registry.Custom(name)
	if !found {
		return newMethodNotFoundError(name)
	}
	fn(c, args...)
	return nil
}

// Tag sets the level of the next helper call (e.g., [*Console.Log]).
//
// The tag is consumed by exactly one call, then cleared:
//
//	c.Tag("warn").Log("disk almost full")
//
// Prefer [*Console.Emit] when several goroutines share the console.
func (c *Console) Tag(level string) *Console {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level == "" {
		c.pending = nil
	} else {
		c.pending = &level
	}
	return c
}

func (c *Console) takePending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var level string
	if c.pending != nil {
		level, c.pending = *c.pending, nil
	}
	return level
}

// Emit processes a call to method tagged with level.
//
// An empty level means untagged. Methods that are not base methods are
// written to the sink as log.
func (c *Console) Emit(level, method string, args ...any) {
	if !c.filter.ShouldProcess(level) {
		return
	}

	if override, found := c.registry.Get(method); found {
		if !c.invokeOverride(override, level, method, args) {
			return
		}
	}

	c.mu.Lock()
	stream, useColor := c.stream, c.useColor
	c.mu.Unlock()

	if c.Streamer != nil && stream.Enabled() && c.Streamer.Connected() {
		c.streamRecord(level, method, args)
	}

	if method == MethodIO {
		for _, line := range flowLines(useColor, args) {
			fmt.Fprintln(c.Stdout, line)
		}
		return
	}
	if useColor {
		args = colorize(method, args)
	}
	if !IsBaseMethod(method) {
		method = MethodLog
	}
	c.Sink.Output(method, args...)
}

func (c *Console) invokeOverride(override Override, level, method string, args []any) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Info(
				"overridePanic",
				slog.String("method", method),
				slog.String("level", level),
				slog.Any("panic", r),
				slog.Time("t", c.TimeNow()),
			)
			cont = true
		}
	}()
	return override(level, args)
}

func (c *Console) streamRecord(level, method string, args []any) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Info(
				"streamPanic",
				slog.String("method", method),
				slog.Any("panic", r),
				slog.Time("t", c.TimeNow()),
			)
		}
	}()
	c.Streamer.Send(newRecord(c.Process, level, method, args, c.TimeNow().UnixMilli()))
}

// Log writes a log message.
func (c *Console) Log(args ...any) {
	c.Emit(c.takePending(), MethodLog, args...)
}

// Info writes an informational message.
func (c *Console) Info(args ...any) {
	c.Emit(c.takePending(), MethodInfo, args...)
}

// Error writes an error message.
func (c *Console) Error(args ...any) {
	c.Emit(c.takePending(), MethodError, args...)
}

// Warn writes a warning.
func (c *Console) Warn(args ...any) {
	c.Emit(c.takePending(), MethodWarn, args...)
}

// Debug writes a debug message.
func (c *Console) Debug(args ...any) {
	c.Emit(c.takePending(), MethodDebug, args...)
}

// Trace writes a message followed by the stack.
func (c *Console) Trace(args ...any) {
	c.Emit(c.takePending(), MethodTrace, args...)
}

// Dir writes a dump of each argument.
func (c *Console) Dir(args ...any) {
	c.Emit(c.takePending(), MethodDir, args...)
}

// Time starts the timer with the given label.
func (c *Console) Time(label string) {
	c.Emit(c.takePending(), MethodTime, label)
}

// TimeEnd stops the timer with the given label and writes the elapsed time.
func (c *Console) TimeEnd(label string) {
	c.Emit(c.takePending(), MethodTimeEnd, label)
}

// Assert writes args as an error when cond is false.
func (c *Console) Assert(cond bool, args ...any) {
	c.Emit(c.takePending(), MethodAssert, append([]any{cond}, args...)...)
}

// IO writes a "Flow:" line naming a data flow, followed by an optional detail line.
func (c *Console) IO(flow string, detail ...any) {
	args := []any{flow}
	if len(detail) > 0 {
		args = append(args, fmt.Sprint(detail...))
	}
	c.Emit(c.takePending(), MethodIO, args...)
}
