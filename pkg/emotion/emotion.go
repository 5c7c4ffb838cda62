// Package emotion defines the five tracked facial-emotion labels, how a
// dominant label is picked from raw classifier scores, the canned
// dashboard responses, and the rolling history used for the trend chart.
package emotion

import "strings"

// Label is one of the tracked emotion categories.
type Label string

// Tracked labels. Their order defines the chart index and tie-breaking.
const (
	Angry    Label = "angry"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Surprise Label = "surprise"
	Neutral  Label = "neutral"
)

// Default is the label shown before the first successful analysis.
const Default = Neutral

var ordered = [...]Label{Angry, Happy, Sad, Surprise, Neutral}

// Labels returns the tracked labels in their fixed order.
func Labels() []Label {
	out := make([]Label, len(ordered))
	copy(out, ordered[:])
	return out
}

// Index returns the categorical index of l, or false for an unknown label.
func Index(l Label) (int, bool) {
	for i, o := range ordered {
		if o == l {
			return i, true
		}
	}
	return 0, false
}

// Valid reports whether l is one of the tracked labels.
func (l Label) Valid() bool {
	_, ok := Index(l)
	return ok
}

// Upper returns the label in upper case, as drawn on frames.
func (l Label) Upper() string {
	return strings.ToUpper(string(l))
}

func (l Label) String() string {
	return string(l)
}

// Scores holds raw per-label scores from a classifier, in percent.
// Keys may include labels beyond the tracked five; they are ignored.
type Scores map[string]float64

// Get returns the score for l, or 0 when absent.
func (s Scores) Get(l Label) float64 {
	return s[string(l)]
}

// Top returns the tracked label with the highest score and its confidence
// truncated to an integer. Ties go to the earliest label in fixed order.
// An empty or nil Scores yields the first label with confidence 0.
func Top(s Scores) (Label, int) {
	best := ordered[0]
	bestScore := s.Get(best)
	for _, l := range ordered[1:] {
		if v := s.Get(l); v > bestScore {
			best, bestScore = l, v
		}
	}
	return best, int(bestScore)
}

var responses = map[Label]string{
	Happy:    "You look happy 😄 Keep spreading positivity!",
	Sad:      "I’m here for you ❤️ Take a short break.",
	Angry:    "Try deep breathing 🌿 It helps calm the mind.",
	Surprise: "Something interesting happened 👀",
	Neutral:  "All good 😌 Stay focused.",
}

// Response returns the dashboard text for l. Unknown labels get the
// neutral response.
func Response(l Label) string {
	if r, ok := responses[l]; ok {
		return r
	}
	return responses[Neutral]
}
