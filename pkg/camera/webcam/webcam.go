// Package webcam implements camera.Source on top of OpenCV video capture.
package webcam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-moodcam/pkg/camera"
	"github.com/teslashibe/go-moodcam/pkg/debug"
	"gocv.io/x/gocv"
)

// Webcam reads frames from a local capture device through OpenCV.
type Webcam struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	config  camera.Config
	seq     uint64

	mu     sync.Mutex // Protects capture and mat
	closed bool
}

// Open opens the configured device. It satisfies camera.Opener.
func Open(cfg camera.Config) (camera.Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", camera.ErrInvalidConfig, errs)
	}

	vc, err := gocv.OpenVideoCapture(cfg.DeviceID())
	if err != nil {
		return nil, fmt.Errorf("%w: device %s: %v", camera.ErrOpenFailed, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %s not opened", camera.ErrOpenFailed, cfg.Device)
	}

	// Drivers treat these as hints; the actual size is taken from each frame.
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Webcam{
		capture: vc,
		mat:     gocv.NewMat(),
		config:  cfg,
	}, nil
}

// Read grabs the next frame, mirrored when configured.
func (w *Webcam) Read(ctx context.Context) (camera.Frame, error) {
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return camera.Frame{}, camera.ErrClosed
	}

	if ok := w.capture.Read(&w.mat); !ok || w.mat.Empty() {
		return camera.Frame{}, fmt.Errorf("%w: device %s", camera.ErrReadFailed, w.config.Device)
	}

	if w.config.Mirror {
		gocv.Flip(w.mat, &w.mat, 1)
	}

	img, err := w.mat.ToImage()
	if err != nil {
		return camera.Frame{}, fmt.Errorf("%w: convert frame: %v", camera.ErrReadFailed, err)
	}

	w.seq++
	debug.FrameLog("📷 frame %d (%dx%d)\n", w.seq, w.mat.Cols(), w.mat.Rows())

	return camera.Frame{
		Image:    img,
		Seq:      w.seq,
		Captured: time.Now(),
	}, nil
}

// Close releases the capture device. It is safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.capture.Close()
}
