// Package ferplus classifies facial emotion locally with the FER+ ONNX
// model through OpenCV's DNN module.
//
// The best face in the frame is found with YuNet, cropped, converted to
// 64x64 grayscale and fed to the network. With no face model configured
// the whole frame is classified.
package ferplus

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"github.com/teslashibe/go-moodcam/pkg/face"
	"github.com/teslashibe/go-moodcam/pkg/face/yunet"
	"gocv.io/x/gocv"
)

const backendName = "ferplus"

// InputSize is the network's square input edge.
const InputSize = 64

// Config holds FER+ backend settings.
type Config struct {
	ModelPath     string // emotion-ferplus-8.onnx
	FaceModelPath string // YuNet model; empty classifies the whole frame
	FaceThresh    float64
	Logger        *slog.Logger
}

// DefaultConfig returns model paths under ./models.
func DefaultConfig() Config {
	return Config{
		ModelPath:     "models/emotion-ferplus-8.onnx",
		FaceModelPath: face.DefaultConfig().ModelPath,
		FaceThresh:    face.DefaultConfig().ConfidenceThresh,
		Logger:        slog.Default(),
	}
}

// FERPlus runs the FER+ network.
type FERPlus struct {
	net    gocv.Net
	faces  *yunet.Detector
	logger *slog.Logger

	mu     sync.Mutex // Protects net
	closed bool
}

// New loads the emotion network and, if configured, the face detector.
func New(cfg Config) (*FERPlus, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, classifier.WrapError(backendName, fmt.Errorf("model file not found: %s", cfg.ModelPath))
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, classifier.WrapError(backendName, fmt.Errorf("failed to load model: %s", cfg.ModelPath))
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	f := &FERPlus{
		net:    net,
		logger: cfg.Logger.With("component", "classifier.ferplus"),
	}

	if cfg.FaceModelPath != "" {
		fc := face.DefaultConfig()
		fc.ModelPath = cfg.FaceModelPath
		if cfg.FaceThresh > 0 {
			fc.ConfidenceThresh = cfg.FaceThresh
		}
		faces, err := yunet.New(fc)
		if err != nil {
			net.Close()
			return nil, classifier.WrapError(backendName, err)
		}
		f.faces = faces
	}

	f.logger.Info("model loaded", "model", cfg.ModelPath, "face_model", cfg.FaceModelPath)
	return f, nil
}

// Classify returns percentage scores for the most prominent face.
func (f *FERPlus) Classify(ctx context.Context, img image.Image) (emotion.Scores, error) {
	if img == nil {
		return nil, classifier.WrapError(backendName, classifier.ErrNoImage)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, classifier.WrapError(backendName, classifier.ErrClosed)
	}

	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, classifier.WrapError(backendName, fmt.Errorf("convert image: %w", err))
	}
	defer frame.Close()

	region := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if f.faces != nil {
		dets, err := f.faces.DetectMat(frame)
		if err != nil {
			return nil, classifier.WrapError(backendName, err)
		}
		best := face.SelectBest(dets)
		if best == nil {
			return nil, classifier.WrapError(backendName, classifier.ErrNoFace)
		}
		region = best.Rect(frame.Cols(), frame.Rows())
		if region.Empty() {
			return nil, classifier.WrapError(backendName, classifier.ErrNoFace)
		}
	}

	crop := frame.Region(region)
	defer crop.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	// FER+ expects raw 0-255 intensities, no mean subtraction.
	blob := gocv.BlobFromImage(gray, 1.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	f.net.SetInput(blob, "")
	out := f.net.Forward("")
	defer out.Close()

	logits := make([]float32, out.Total())
	for i := range logits {
		logits[i] = out.GetFloatAt(0, i)
	}
	return ToScores(logits), nil
}

// Name returns the backend name.
func (f *FERPlus) Name() string {
	return backendName
}

// Health reports whether the model is still loaded.
func (f *FERPlus) Health(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return classifier.WrapError(backendName, classifier.ErrClosed)
	}
	return nil
}

// Close releases the network and detector.
func (f *FERPlus) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.net.Close()
	if f.faces != nil {
		return f.faces.Close()
	}
	return nil
}

var _ classifier.Classifier = (*FERPlus)(nil)
