package monitor

import (
	"time"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

// session is the mutable state of the dashboard. Only the capture loop
// writes it while running; Start and Stop write it otherwise.
type session struct {
	runID        string
	state        State
	lastAnalysis time.Time
	top          emotion.Label
	confidence   int
	history      *emotion.History
	frames       uint64
	analyses     uint64
	failures     uint64
	err          error
	startedAt    time.Time
}

func newSession(historySize int) session {
	return session{
		state:   Idle,
		top:     emotion.Default,
		history: emotion.NewHistory(historySize),
	}
}

// Snapshot is an immutable copy of the session for display.
type Snapshot struct {
	RunID           string           `json:"run_id,omitempty"`
	State           State            `json:"state"`
	Running         bool             `json:"running"`
	Top             emotion.Label    `json:"emotion"`
	Confidence      int              `json:"confidence"`
	Caption         string           `json:"caption"`
	Response        string           `json:"response"`
	LastAnalysis    *time.Time       `json:"last_analysis,omitempty"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	History         []emotion.Sample `json:"history"`
	Frames          uint64           `json:"frames"`
	Analyses        uint64           `json:"analyses"`
	Failures        uint64           `json:"failures"`
	Error           string           `json:"error,omitempty"`
	Classifier      string           `json:"classifier"`
	IntervalSeconds float64          `json:"interval_seconds"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
