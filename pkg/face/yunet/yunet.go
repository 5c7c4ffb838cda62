// Package yunet runs OpenCV's YuNet face detector through gocv.
package yunet

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-moodcam/pkg/debug"
	"github.com/teslashibe/go-moodcam/pkg/face"
	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned for empty or nil frames.
var ErrEmptyImage = errors.New("yunet: empty image")

// Detector wraps OpenCV's FaceDetectorYN.
type Detector struct {
	detector gocv.FaceDetectorYN
	config   face.Config
	mu       sync.Mutex // Protects inference
}

// New loads the YuNet model.
func New(cfg face.Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yunet: model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		float32(cfg.NMSThresh),
		5000,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &Detector{detector: detector, config: cfg}, nil
}

// DetectMat finds faces in a BGR Mat.
func (y *Detector) DetectMat(img gocv.Mat) ([]face.Detection, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())
	y.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	y.detector.Detect(img, &faces)

	// Row layout: x, y, w, h, five landmark pairs, score.
	dets := make([]face.Detection, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		dets = append(dets, face.Detection{
			X:          float64(faces.GetFloatAt(r, 0)) / imgW,
			Y:          float64(faces.GetFloatAt(r, 1)) / imgH,
			W:          float64(faces.GetFloatAt(r, 2)) / imgW,
			H:          float64(faces.GetFloatAt(r, 3)) / imgH,
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}

	if len(dets) > 0 {
		debug.Log("👁️  YuNet found %d face(s)\n", len(dets))
	}
	return dets, nil
}

// Detect finds faces in an image.
func (y *Detector) Detect(img image.Image) ([]face.Detection, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("yunet: convert image: %w", err)
	}
	defer mat.Close()
	return y.DetectMat(mat)
}

// Close releases the detector.
func (y *Detector) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.detector.Close()
	return nil
}
