// Package monitor runs the capture loop: read a frame, classify it at most
// once per interval, annotate it and publish it to the dashboard.
//
// The loop is a small state machine:
//
//	idle -> capturing -> analyzing -> rendering -> capturing ...
//
// A camera read failure ends the loop in the failed state and the error is
// published exactly once. Classification failures keep the previous result.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-moodcam/pkg/camera"
	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/debug"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"github.com/teslashibe/go-moodcam/pkg/overlay"
)

var (
	// ErrAlreadyRunning is returned by Start while a capture loop is active.
	ErrAlreadyRunning = errors.New("monitor: already running")

	// ErrNotRunning is returned by Step before the camera is opened.
	ErrNotRunning = errors.New("monitor: not running")
)

// Monitor owns the camera, the classifier and the session state.
type Monitor struct {
	open         camera.Opener
	clf          classifier.Classifier
	pub          Publisher
	logger       *slog.Logger
	now          func() time.Time
	cameraConfig func() camera.Config

	interval    time.Duration
	framePeriod time.Duration
	historySize int

	mu       sync.RWMutex
	sess     session
	throttle *Throttle
	src      camera.Source
	quality  int
	frame    []byte
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	runErr   error
}

// New creates an idle monitor.
func New(open camera.Opener, clf classifier.Classifier, opts ...Option) *Monitor {
	m := &Monitor{
		open:         open,
		clf:          clf,
		pub:          nopPublisher{},
		logger:       slog.Default(),
		now:          time.Now,
		cameraConfig: camera.DefaultConfig,
		interval:     DefaultInterval,
		framePeriod:  DefaultFramePeriod,
		historySize:  emotion.DefaultHistorySize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "monitor")
	m.sess = newSession(m.historySize)
	m.throttle = NewThrottle(m.interval)
	return m
}

// Open opens the camera and resets the per-run session state without
// starting the loop; drive it with Step. Each run starts with an empty
// history; the last result carries over.
func (m *Monitor) Open() error {
	m.mu.RLock()
	busy := m.running || m.src != nil
	m.mu.RUnlock()
	if busy {
		return ErrAlreadyRunning
	}
	return m.openSource()
}

func (m *Monitor) openSource() error {
	cfg := m.cameraConfig()
	src, err := m.open(cfg)

	m.mu.Lock()
	if err != nil {
		openErr := fmt.Errorf("open camera: %w", err)
		m.sess.state = Failed
		m.sess.err = openErr
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.logger.Error("camera open failed", "device", cfg.Device, "error", err)
		m.pub.PublishStatus(snap)
		return openErr
	}

	m.src = src
	m.quality = cfg.Quality
	m.frame = nil
	m.throttle.Reset()
	m.sess.history.Reset()
	m.sess.runID = uuid.New().String()
	m.sess.state = Capturing
	m.sess.err = nil
	m.sess.frames, m.sess.analyses, m.sess.failures = 0, 0, 0
	m.sess.startedAt = m.now()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("capture started", "run_id", snap.RunID, "device", cfg.Device,
		"width", cfg.Width, "height", cfg.Height)
	m.pub.PublishStatus(snap)
	return nil
}

// Close releases the camera and returns to idle. Use Stop while the
// loop is running.
func (m *Monitor) Close() error {
	m.mu.Lock()
	src := m.src
	m.src = nil
	changed := m.sess.state != Idle
	m.sess.state = Idle
	m.sess.err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	var err error
	if src != nil {
		err = src.Close()
	}
	if changed {
		m.pub.PublishStatus(snap)
	}
	return err
}

// Start opens the camera and runs the loop in a goroutine until ctx is
// cancelled, Stop is called or the camera fails.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running || m.src != nil {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	if err := m.openSource(); err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.runErr = nil
	m.mu.Unlock()

	go m.loop(loopCtx, done)
	return nil
}

// Stop ends the loop, waits for it and releases the camera.
// Stopping an idle monitor is a no-op; a failed monitor returns to idle.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return m.Close()
}

// Wait blocks until the current loop ends and returns its terminal error.
// It returns nil immediately when no loop was started.
func (m *Monitor) Wait() error {
	m.mu.RLock()
	done := m.done
	m.mu.RUnlock()

	if done == nil {
		return nil
	}
	<-done

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runErr
}

// Run starts the loop and blocks until it ends.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	err := m.Wait()
	if ctx.Err() != nil {
		m.Stop()
	}
	return err
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	var err error
	defer func() {
		m.mu.Lock()
		m.running = false
		m.runErr = err
		m.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(m.framePeriod)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		if stepErr := m.Step(ctx, m.now()); stepErr != nil {
			if ctx.Err() != nil {
				return
			}
			err = stepErr
			m.fail(stepErr)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// fail moves to the failed state, releases the camera and publishes the
// error. It runs once per loop.
func (m *Monitor) fail(err error) {
	m.mu.Lock()
	src := m.src
	m.src = nil
	m.sess.state = Failed
	m.sess.err = err
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if src != nil {
		src.Close()
	}
	m.logger.Error("capture stopped", "run_id", snap.RunID, "error", err)
	m.pub.PublishStatus(snap)
}

// Step runs one loop iteration at now: read a frame, classify it if the
// throttle allows, render and publish. A returned error is a camera
// failure; classification errors are absorbed.
func (m *Monitor) Step(ctx context.Context, now time.Time) error {
	m.mu.RLock()
	src := m.src
	m.mu.RUnlock()
	if src == nil {
		return ErrNotRunning
	}

	frame, err := src.Read(ctx)
	if err != nil {
		return fmt.Errorf("camera read: %w", err)
	}

	m.mu.Lock()
	m.sess.frames++
	due := m.throttle.Due(now)
	if due {
		m.throttle.Mark(now)
		m.sess.state = Analyzing
	}
	m.mu.Unlock()

	if due {
		m.analyze(ctx, frame, now)
	}

	m.mu.Lock()
	m.sess.state = Rendering
	label, conf, quality := m.sess.top, m.sess.confidence, m.quality
	m.mu.Unlock()

	jpeg, err := overlay.Render(frame.Image, label, conf, quality)

	m.mu.Lock()
	if err == nil {
		m.frame = jpeg
	}
	if m.src != nil {
		m.sess.state = Capturing
	}
	var snap Snapshot
	if due {
		snap = m.snapshotLocked()
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("frame render failed", "seq", frame.Seq, "error", err)
	} else {
		m.pub.PublishFrame(jpeg)
	}
	if due {
		m.pub.PublishStatus(snap)
	}
	return nil
}

// analyze classifies one frame. Failures leave the previous result and the
// history untouched.
func (m *Monitor) analyze(ctx context.Context, frame camera.Frame, now time.Time) {
	scores, err := m.clf.Classify(ctx, frame.Image)
	if err != nil {
		m.mu.Lock()
		m.sess.failures++
		m.mu.Unlock()
		if errors.Is(err, classifier.ErrNoFace) {
			debug.Log("🙈 No face in frame %d\n", frame.Seq)
		}
		m.logger.Debug("classification failed", "seq", frame.Seq, "error", err)
		return
	}

	label, conf := emotion.Top(scores)

	m.mu.Lock()
	m.sess.top = label
	m.sess.confidence = conf
	m.sess.lastAnalysis = now
	m.sess.analyses++
	m.sess.history.Add(label, conf, now)
	m.mu.Unlock()

	debug.Log("🎭 %s (%d%%)\n", label, conf)
}

// Snapshot returns a copy of the session for display.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() Snapshot {
	s := m.sess
	snap := Snapshot{
		RunID:           s.runID,
		State:           s.state,
		Running:         s.state.Running(),
		Top:             s.top,
		Confidence:      s.confidence,
		Caption:         overlay.Caption(s.top, s.confidence),
		Response:        emotion.Response(s.top),
		LastAnalysis:    timePtr(s.lastAnalysis),
		StartedAt:       timePtr(s.startedAt),
		History:         s.history.Samples(),
		Frames:          s.frames,
		Analyses:        s.analyses,
		Failures:        s.failures,
		IntervalSeconds: m.interval.Seconds(),
	}
	if m.clf != nil {
		snap.Classifier = m.clf.Name()
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// History returns the recorded detections, oldest first.
func (m *Monitor) History() []emotion.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.history.Samples()
}

// LatestFrame returns the last rendered JPEG.
func (m *Monitor) LatestFrame() ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame, m.frame != nil
}
