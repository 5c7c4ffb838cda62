package ferplus

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float32{1, 2, 3})
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("sum = %f, want 1", sum)
	}
	if !(probs[2] > probs[1] && probs[1] > probs[0]) {
		t.Errorf("softmax should preserve order: %v", probs)
	}

	// Large logits must not overflow.
	big := Softmax([]float32{1000, 1000})
	if math.IsNaN(big[0]) || math.Abs(big[0]-0.5) > 1e-9 {
		t.Errorf("Softmax(1000,1000) = %v", big)
	}

	if Softmax(nil) != nil {
		t.Error("Softmax(nil) should be nil")
	}
}

func TestToScores(t *testing.T) {
	// Strong "happiness" logit at index 1.
	logits := []float32{0, 10, 0, 0, 0, 0, 0, 0}
	scores := ToScores(logits)

	if len(scores) != 8 {
		t.Errorf("len(scores) = %d, want 8", len(scores))
	}
	for _, name := range []string{"neutral", "happy", "surprise", "sad", "angry", "disgust", "fear", "contempt"} {
		if _, ok := scores[name]; !ok {
			t.Errorf("missing score for %q", name)
		}
	}

	label, conf := emotion.Top(scores)
	if label != emotion.Happy {
		t.Errorf("Top label = %s, want happy", label)
	}
	if conf != 99 {
		t.Errorf("confidence = %d, want 99", conf)
	}
}

func TestToScoresIgnoresExtraOutputs(t *testing.T) {
	scores := ToScores([]float32{0, 0, 0, 0, 5, 0, 0, 0, 100})
	if len(scores) != 8 {
		t.Fatalf("len(scores) = %d, want 8", len(scores))
	}
	if label, _ := emotion.Top(scores); label != emotion.Angry {
		t.Errorf("Top = %s, want angry", label)
	}
}

func TestNewMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "/nonexistent/ferplus.onnx"
	_, err := New(cfg)

	var be *classifier.BackendError
	if !errors.As(err, &be) || be.Backend != "ferplus" {
		t.Errorf("New error = %v, want ferplus BackendError", err)
	}
}
