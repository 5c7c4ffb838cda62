// Package classifier provides a unified interface for facial-emotion
// classification backends.
//
// The package hides the actual model behind a single Classifier interface,
// so the capture loop can run against a DeepFace REST service, a local
// ONNX model (see the ferplus subpackage), a remote websocket detector, or
// a fallback chain of these.
//
// Example usage:
//
//	c, _ := classifier.NewDeepFace(
//	    classifier.WithBaseURL("http://localhost:5005"),
//	    classifier.WithTimeout(5*time.Second),
//	)
//	defer c.Close()
//
//	scores, err := c.Classify(ctx, frame.Image)
//	if err == nil {
//	    label, confidence := emotion.Top(scores)
//	}
package classifier

import (
	"context"
	"image"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

// Classifier scores the facial emotions visible in an image.
// All implementations must satisfy this interface.
type Classifier interface {
	// Classify returns per-label scores in percent for the dominant face.
	// ErrNoFace is returned when no face could be found.
	Classify(ctx context.Context, img image.Image) (emotion.Scores, error)

	// Name identifies the backend in logs and on the dashboard.
	Name() string

	// Health checks backend availability.
	Health(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}
