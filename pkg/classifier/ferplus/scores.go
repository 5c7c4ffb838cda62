package ferplus

import (
	"math"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

// Outputs lists the model's classes in output order, already renamed to
// the label names the rest of the app uses.
var Outputs = [8]string{
	string(emotion.Neutral),
	string(emotion.Happy),
	string(emotion.Surprise),
	string(emotion.Sad),
	string(emotion.Angry),
	"disgust",
	"fear",
	"contempt",
}

// Softmax converts raw logits to probabilities.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxV := float64(logits[0])
	for _, v := range logits[1:] {
		maxV = math.Max(maxV, float64(v))
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// ToScores maps model logits to percentage scores keyed by label name.
// Extra logits beyond the eight classes are ignored.
func ToScores(logits []float32) emotion.Scores {
	if len(logits) > len(Outputs) {
		logits = logits[:len(Outputs)]
	}
	probs := Softmax(logits)
	scores := make(emotion.Scores, len(probs))
	for i, p := range probs {
		scores[Outputs[i]] = p * 100
	}
	return scores
}
