package monitor

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-moodcam/pkg/camera"
)

// DefaultFramePeriod is the pause between captured frames.
const DefaultFramePeriod = 50 * time.Millisecond

// Publisher receives rendered frames and status changes.
type Publisher interface {
	PublishFrame(jpeg []byte)
	PublishStatus(s Snapshot)
}

type nopPublisher struct{}

func (nopPublisher) PublishFrame([]byte)     {}
func (nopPublisher) PublishStatus(Snapshot) {}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the classification throttle interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithFramePeriod sets the pause between frames.
func WithFramePeriod(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.framePeriod = d
		}
	}
}

// WithHistorySize sets how many detections are kept.
func WithHistorySize(n int) Option {
	return func(m *Monitor) { m.historySize = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithPublisher sets where frames and status updates go.
func WithPublisher(p Publisher) Option {
	return func(m *Monitor) {
		if p != nil {
			m.pub = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCameraConfig sets where the camera configuration is read at each
// Start. The default is camera.DefaultConfig.
func WithCameraConfig(get func() camera.Config) Option {
	return func(m *Monitor) {
		if get != nil {
			m.cameraConfig = get
		}
	}
}
