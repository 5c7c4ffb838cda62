package debug

import (
	"bytes"
	"testing"
)

func TestLogGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer Configure(false, false)

	tests := []struct {
		name    string
		enabled bool
		frames  bool
		want    string
	}{
		{"off", false, false, ""},
		{"debug only", true, false, "log 1\n"},
		{"frames imply debug", false, true, "log 1\nframe 2\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			Configure(tc.enabled, tc.frames)

			Log("log %d\n", 1)
			FrameLog("frame %d\n", 2)

			if buf.String() != tc.want {
				t.Errorf("output = %q, want %q", buf.String(), tc.want)
			}
		})
	}
}
