// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ProcessInfo describes the running program to the remote listener.
//
// It is injected through [Config] so tests and embedding hosts can
// provide stable values.
type ProcessInfo struct {
	// Title is the process title.
	Title string

	// Script is the absolute path of the running program.
	Script string

	// Platform is the host OS identifier (e.g., "linux").
	Platform string
}

// DefaultProcessInfo returns the [ProcessInfo] of the current process.
//
// The title is the base name of os.Args[0] and the script is the
// absolute path of the executable, falling back to os.Args[0].
func DefaultProcessInfo() ProcessInfo {
	var arg0 string
	if len(os.Args) > 0 {
		arg0 = os.Args[0]
	}
	script, err := os.Executable()
	if err != nil {
		script = arg0
	}
	if abs, err := filepath.Abs(script); err == nil {
		script = abs
	}
	return ProcessInfo{
		Title:    filepath.Base(arg0),
		Script:   script,
		Platform: runtime.GOOS,
	}
}

// File returns the base name of Script.
func (pi ProcessInfo) File() string {
	return filepath.Base(pi.Script)
}

// Name combines the title and the script base name.
func (pi ProcessInfo) Name() string {
	return fmt.Sprintf("%s (%s)", pi.Title, pi.File())
}
