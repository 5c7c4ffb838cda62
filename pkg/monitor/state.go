package monitor

import "fmt"

// State is the capture loop's position in its cycle.
type State int

const (
	Idle State = iota
	Capturing
	Analyzing
	Rendering
	Failed
)

var stateNames = [...]string{"idle", "capturing", "analyzing", "rendering", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Running reports whether the loop owns the camera in this state.
func (s State) Running() bool {
	return s == Capturing || s == Analyzing || s == Rendering
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
