// Package face finds faces in camera frames so classifiers can crop them.
package face

import (
	"image"
	"math"
)

// Detection is one face, normalized to the frame (0-1).
type Detection struct {
	X, Y       float64 // Top-left corner
	W, H       float64 // Width and height
	Confidence float64 // Detector score (0-1)
}

// Center returns the center point of the detection.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Rect converts the detection to pixel coordinates for a w×h frame,
// clipped to the frame bounds.
func (d Detection) Rect(w, h int) image.Rectangle {
	r := image.Rect(
		int(math.Floor(d.X*float64(w))),
		int(math.Floor(d.Y*float64(h))),
		int(math.Ceil((d.X+d.W)*float64(w))),
		int(math.Ceil((d.Y+d.H)*float64(h))),
	)
	return r.Intersect(image.Rect(0, 0, w, h))
}

// Config holds detector configuration.
type Config struct {
	ModelPath        string  // Path to the YuNet ONNX model
	ConfidenceThresh float64 // Minimum score (default 0.6)
	NMSThresh        float64 // Non-maximum suppression threshold
	InputWidth       int     // Initial model input width
	InputHeight      int     // Initial model input height
}

// DefaultConfig returns defaults for YuNet.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet_2023mar.onnx",
		ConfidenceThresh: 0.6,
		NMSThresh:        0.3,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// SelectBest picks the face to classify.
// Score: confidence*0.7 + (area/maxArea)*0.3
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	if len(dets) == 1 {
		return &dets[0]
	}

	maxArea := 0.0
	for _, d := range dets {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}

	bestScore := -1.0
	var best *Detection
	for i := range dets {
		score := dets[i].Confidence * 0.7
		if maxArea > 0 {
			score += dets[i].Area() / maxArea * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}
	return best
}
