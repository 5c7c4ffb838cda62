package emotion

import (
	"sync"
	"time"
)

// DefaultHistorySize is how many detections the trend chart shows.
const DefaultHistorySize = 20

// Sample is one recorded detection.
type Sample struct {
	Label      Label     `json:"label"`
	Index      int       `json:"index"`
	Confidence int       `json:"confidence"`
	Time       time.Time `json:"time"`
}

// History is a fixed-capacity, oldest-evicted sequence of samples.
// It is safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	buf   []Sample
	start int
	n     int
}

// NewHistory creates a history holding at most size samples.
// Sizes below 1 are clamped to 1.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]Sample, size)}
}

// Add appends a sample for l, evicting the oldest when full.
// Unknown labels are rejected and reported as false.
func (h *History) Add(l Label, confidence int, at time.Time) bool {
	idx, ok := Index(l)
	if !ok {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s := Sample{Label: l, Index: idx, Confidence: confidence, Time: at}
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return true
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
	return true
}

// Samples returns the recorded samples, oldest first.
func (h *History) Samples() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Sample, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Labels returns the recorded labels, oldest first.
func (h *History) Labels() []Label {
	samples := h.Samples()
	out := make([]Label, len(samples))
	for i, s := range samples {
		out[i] = s.Label
	}
	return out
}

// Indices returns the categorical index of each recorded label, oldest first.
func (h *History) Indices() []int {
	samples := h.Samples()
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = s.Index
	}
	return out
}

// Len returns the number of recorded samples.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.n
}

// Cap returns the maximum number of samples kept.
func (h *History) Cap() int {
	return len(h.buf)
}

// Reset drops all samples.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start, h.n = 0, 0
}
