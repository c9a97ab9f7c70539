// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// Sink is the real output behind a [*Console].
//
// The console calls Output after filtering, overrides and streaming.
// Output receives the original arguments with any color applied.
type Sink interface {
	Output(method string, args ...any)
}

// NewStdSink returns a [*StdSink] writing to cfg.Stdout and cfg.Stderr.
func NewStdSink(cfg *Config) *StdSink {
	return &StdSink{
		Stderr:  cfg.Stderr,
		Stdout:  cfg.Stdout,
		TimeNow: cfg.TimeNow,
		timers:  make(map[string]time.Time),
	}
}

// StdSink writes console output the way a terminal console does.
//
//   - log, info, debug, dir: stdout
//   - warn, error, trace, failed assert: stderr
//   - time(label) starts a timer; timeEnd(label) prints its elapsed time
//   - assert(cond, args...) prints only when cond is falsy: false, nil,
//     a zero number, NaN or the empty string
//   - dir(value) prints a dump of value
//   - trace(args...) appends the goroutine stack
//
// Unknown methods behave like log. A StdSink is safe for concurrent use.
type StdSink struct {
	// Stderr receives error output.
	Stderr io.Writer

	// Stdout receives regular output.
	Stdout io.Writer

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time

	mu     sync.Mutex
	timers map[string]time.Time
}

var _ Sink = &StdSink{}

// Output implements [Sink].
func (s *StdSink) Output(method string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch method {
	case MethodWarn, MethodError:
		fmt.Fprintln(s.Stderr, args...)

	case MethodTrace:
		fmt.Fprintln(s.Stderr, append([]any{"Trace:"}, args...)...)
		s.Stderr.Write(debug.Stack())

	case MethodAssert:
		if len(args) > 0 {
			if truthy(args[0]) {
				return
			}
			args = args[1:]
		}
		fmt.Fprintln(s.Stderr, append([]any{"Assertion failed"}, args...)...)

	case MethodDir:
		for _, arg := range args {
			fmt.Fprint(s.Stdout, spew.Sdump(arg))
		}

	case MethodTime:
		s.timers[timerLabel(args)] = s.TimeNow()

	case MethodTimeEnd:
		label := timerLabel(args)
		start, found := s.timers[label]
		if !found {
			fmt.Fprintf(s.Stderr, "Warning: no such label '%s' for timeEnd\n", label)
			return
		}
		delete(s.timers, label)
		elapsed := s.TimeNow().Sub(start)
		fmt.Fprintf(s.Stdout, "%s: %.3fms\n", label, float64(elapsed)/float64(time.Millisecond))

	default:
		fmt.Fprintln(s.Stdout, args...)
	}
}

func timerLabel(args []any) string {
	if len(args) > 0 {
		if label := fmt.Sprint(args[0]); label != "" {
			return label
		}
	}
	return "default"
}

// truthy reports whether v passes an assert.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Bool:
		return rv.Bool()
	case rv.Kind() == reflect.String:
		return rv.Len() > 0
	case rv.CanInt():
		return rv.Int() != 0
	case rv.CanUint():
		return rv.Uint() != 0
	case rv.CanFloat():
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case rv.Kind() == reflect.Pointer, rv.Kind() == reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
