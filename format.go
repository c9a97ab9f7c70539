// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"fmt"
	"time"
)

const (
	ansiReset       = "\033[0m"
	ansiRedBold     = "\033[1;31m"
	ansiYellowBold  = "\033[1;33m"
	ansiCyanBold    = "\033[1;36m"
	ansiMagentaBold = "\033[1;35m"
	ansiBlue        = "\033[34m"
	ansiBlueBold    = "\033[1;34m"
)

var methodColors = map[string]string{
	MethodError: ansiRedBold,
	MethodWarn:  ansiYellowBold,
	MethodInfo:  ansiCyanBold,
	MethodDebug: ansiMagentaBold,
}

// colorize wraps scalar arguments of colored methods in ANSI sequences.
//
// Strings, booleans, numbers and times are converted to colored strings.
// Other arguments and other methods are returned unchanged.
func colorize(method string, args []any) []any {
	color, found := methodColors[method]
	if !found {
		return args
	}
	out := make([]any, len(args))
	for idx, arg := range args {
		switch v := arg.(type) {
		case string:
			out[idx] = paint(color, v)
		case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			out[idx] = paint(color, fmt.Sprint(v))
		case time.Time:
			out[idx] = paint(color, v.String())
		default:
			out[idx] = arg
		}
	}
	return out
}

func paint(color, s string) string {
	return color + s + ansiReset
}

// flowLines formats the arguments of the io method.
func flowLines(useColor bool, args []any) []string {
	var flow string
	if len(args) > 0 {
		flow = fmt.Sprint(args[0])
	}
	prefix := "Flow: "
	if useColor {
		prefix, flow = paint(ansiBlue, prefix), paint(ansiBlueBold, flow)
	}
	lines := []string{prefix + flow}
	if len(args) > 1 && args[1] != nil {
		detail := fmt.Sprint(args[1])
		if useColor {
			detail = paint(ansiBlueBold, detail)
		}
		lines = append(lines, detail)
	}
	return lines
}
