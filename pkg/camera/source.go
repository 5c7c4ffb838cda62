package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrOpenFailed is returned when the capture device cannot be opened.
	ErrOpenFailed = errors.New("camera: open failed")

	// ErrReadFailed is returned when no frame could be read from the device.
	ErrReadFailed = errors.New("camera: read failed")

	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("camera: source closed")

	// ErrInvalidConfig is returned for out-of-range settings.
	ErrInvalidConfig = errors.New("camera: invalid config")
)

// Frame is one captured video frame.
type Frame struct {
	// Image holds the pixels, already mirrored when the source mirrors.
	Image image.Image

	// Seq is the per-source frame counter, starting at 1.
	Seq uint64

	// Captured is when the frame was read.
	Captured time.Time
}

// Source is a blocking frame producer.
type Source interface {
	// Read blocks until the next frame is available.
	Read(ctx context.Context) (Frame, error)

	// Close releases the device.
	Close() error
}

// Opener opens a Source for the given configuration.
type Opener func(cfg Config) (Source, error)
