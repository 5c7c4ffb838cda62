// Package debug provides global debug logging flags for the capture loop.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame capture logs are shown.
// Use -debug-frames to enable these very verbose logs
var Frames bool

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// Configure sets both flags at once. Frame logs imply debug logs.
func Configure(enabled, frames bool) {
	Enabled = enabled || frames
	Frames = frames
}

// SetOutput redirects debug output. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

func printf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format, args...)
}

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		printf(format, args...)
	}
}

// FrameLog prints a per-frame message only if frame debug mode is enabled
func FrameLog(format string, args ...interface{}) {
	if Frames {
		printf(format, args...)
	}
}
