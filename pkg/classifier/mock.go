package classifier

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	ClassifyFunc func(ctx context.Context, img image.Image) (emotion.Scores, error)

	// HealthFunc is called when Health is invoked.
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// NameOverride replaces the default "mock" name.
	NameOverride string

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock that always returns scores.
func NewMock(scores emotion.Scores) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, img image.Image) (emotion.Scores, error) {
			out := make(emotion.Scores, len(scores))
			for k, v := range scores {
				out[k] = v
			}
			return out, nil
		},
	}
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, img image.Image) (emotion.Scores, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Sequence returns a mock that replays results in order and repeats the
// last one once exhausted. A nil Scores entry returns errs[i] instead.
func Sequence(scores []emotion.Scores, errs []error) *Mock {
	var i int
	var mu sync.Mutex
	return &Mock{
		ClassifyFunc: func(ctx context.Context, img image.Image) (emotion.Scores, error) {
			mu.Lock()
			defer mu.Unlock()
			n := i
			if n >= len(scores) {
				n = len(scores) - 1
			}
			i++
			if scores[n] == nil && n < len(errs) {
				return nil, errs[n]
			}
			return scores[n], nil
		},
	}
}

// Classify calls ClassifyFunc and records the call.
func (m *Mock) Classify(ctx context.Context, img image.Image) (emotion.Scores, error) {
	m.record("Classify")
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, img)
	}
	return nil, WrapError("mock", ErrUnavailable)
}

// Name returns "mock" unless overridden.
func (m *Mock) Name() string {
	if m.NameOverride != "" {
		return m.NameOverride
	}
	return "mock"
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Classifier at compile time.
var _ Classifier = (*Mock)(nil)
