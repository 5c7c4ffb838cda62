package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-moodcam/pkg/camera"
	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"github.com/teslashibe/go-moodcam/pkg/monitor"
)

// fakeController stands in for the capture loop.
type fakeController struct {
	running  bool
	startErr error
	frame    []byte
	history  []emotion.Sample
	starts   int
	stops    int
}

func (f *fakeController) Start(ctx context.Context) error {
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	if f.running {
		return monitor.ErrAlreadyRunning
	}
	f.running = true
	return nil
}

func (f *fakeController) Stop() error {
	f.stops++
	f.running = false
	return nil
}

func (f *fakeController) Snapshot() monitor.Snapshot {
	state := monitor.Idle
	if f.running {
		state = monitor.Capturing
	}
	return monitor.Snapshot{
		State:           state,
		Running:         f.running,
		Top:             emotion.Happy,
		Confidence:      80,
		Caption:         "HAPPY (80%)",
		Response:        emotion.Response(emotion.Happy),
		History:         f.history,
		IntervalSeconds: 2,
	}
}

func (f *fakeController) History() []emotion.Sample { return f.history }

func (f *fakeController) LatestFrame() ([]byte, bool) { return f.frame, f.frame != nil }

func newTestServer(t *testing.T, clf classifier.Classifier) (*Server, *fakeController) {
	t.Helper()
	s := NewServer(Config{Addr: ":0"}, camera.NewManager(camera.DefaultConfig()), clf)
	ctrl := &fakeController{}
	s.Bind(ctrl)
	return s, ctrl
}

func do(t *testing.T, s *Server, method, path string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodGet, "/", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	for _, want := range []string{"Start Camera", "Emotion analysis runs every", "/ws/camera", "/api/history/chart.png"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodGet, "/api/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["state"] != "idle" || got["emotion"] != "happy" || got["caption"] != "HAPPY (80%)" {
		t.Errorf("snapshot = %v", got)
	}
}

func TestCaptureToggle(t *testing.T) {
	s, ctrl := newTestServer(t, nil)

	resp, _ := do(t, s, http.MethodPost, "/api/capture/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	if !ctrl.running {
		t.Error("controller not started")
	}

	resp, body := do(t, s, http.MethodPost, "/api/capture/start", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte("already running")) {
		t.Errorf("body = %s", body)
	}

	resp, _ = do(t, s, http.MethodPost, "/api/capture/stop", nil)
	if resp.StatusCode != http.StatusOK || ctrl.running {
		t.Errorf("stop status = %d running = %v", resp.StatusCode, ctrl.running)
	}
}

func TestCaptureStartFailure(t *testing.T) {
	s, ctrl := newTestServer(t, nil)
	ctrl.startErr = camera.ErrOpenFailed

	resp, body := do(t, s, http.MethodPost, "/api/capture/start", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte("open failed")) {
		t.Errorf("body = %s", body)
	}
}

func TestFrame(t *testing.T) {
	s, ctrl := newTestServer(t, nil)

	resp, _ := do(t, s, http.MethodGet, "/api/frame.jpg", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status before first frame = %d, want 404", resp.StatusCode)
	}

	ctrl.frame = []byte{0xFF, 0xD8, 0xFF, 0xD9}
	resp, body := do(t, s, http.MethodGet, "/api/frame.jpg", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if !bytes.Equal(body, ctrl.frame) {
		t.Error("frame body mismatch")
	}
}

func TestHistoryAndChart(t *testing.T) {
	s, ctrl := newTestServer(t, nil)

	resp, body := do(t, s, http.MethodGet, "/api/history", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var empty HistoryResponse
	json.Unmarshal(body, &empty)
	if len(empty.Labels) != 5 || empty.Samples == nil || len(empty.Samples) != 0 {
		t.Errorf("empty history = %+v", empty)
	}

	ctrl.history = []emotion.Sample{
		{Label: emotion.Sad, Index: 2, Confidence: 70, Time: time.Unix(10, 0)},
		{Label: emotion.Happy, Index: 1, Confidence: 80, Time: time.Unix(12, 0)},
	}
	_, body = do(t, s, http.MethodGet, "/api/history", nil)
	var got HistoryResponse
	json.Unmarshal(body, &got)
	if len(got.Samples) != 2 || got.Samples[1].Label != emotion.Happy {
		t.Errorf("history = %+v", got.Samples)
	}

	resp, body = do(t, s, http.MethodGet, "/api/history/chart.png?w=320&h=160", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chart status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}

	resp, _ = do(t, s, http.MethodGet, "/api/history/chart.png?w=5", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("tiny chart status = %d, want 400", resp.StatusCode)
	}
}

func TestLabels(t *testing.T) {
	s, _ := newTestServer(t, nil)
	_, body := do(t, s, http.MethodGet, "/api/labels", nil)

	var got []LabelInfo
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []emotion.Label{emotion.Angry, emotion.Happy, emotion.Sad, emotion.Surprise, emotion.Neutral}
	if len(got) != len(want) {
		t.Fatalf("got %d labels", len(got))
	}
	for i, l := range want {
		if got[i].Label != l || got[i].Index != i || got[i].Response == "" {
			t.Errorf("label %d = %+v", i, got[i])
		}
	}
}

func TestCameraConfig(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"preset", `{"preset":"low"}`, http.StatusOK},
		{"width", `{"width":800,"height":600}`, http.StatusOK},
		{"out of range", `{"width":10}`, http.StatusBadRequest},
		{"unknown preset", `{"preset":"8k"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			resp, body := do(t, s, http.MethodPut, "/api/camera", strings.NewReader(tc.body))
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tc.wantStatus, body)
			}
		})
	}

	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodPut, "/api/camera", strings.NewReader(`{"preset":"720p"}`))
	_, body := do(t, s, http.MethodGet, "/api/camera", nil)
	var cfg map[string]interface{}
	json.Unmarshal(body, &cfg)
	if cfg["width"] != float64(1280) {
		t.Errorf("config after preset = %v", cfg)
	}

	_, body = do(t, s, http.MethodGet, "/api/camera/presets", nil)
	if !bytes.Contains(body, []byte("1080p")) {
		t.Errorf("presets = %s", body)
	}
}

func TestHealth(t *testing.T) {
	healthy := classifier.NewMock(nil)
	s, _ := newTestServer(t, healthy)
	_, body := do(t, s, http.MethodGet, "/healthz", nil)

	var got map[string]interface{}
	json.Unmarshal(body, &got)
	if got["status"] != "ok" || got["classifier"] != "mock" || got["capture"] != "idle" {
		t.Errorf("health = %v", got)
	}

	down := classifier.WithError(errors.New("connection refused"))
	s, _ = newTestServer(t, down)
	resp, body := do(t, s, http.MethodGet, "/healthz", nil)
	json.Unmarshal(body, &got)
	if resp.StatusCode != http.StatusOK || got["status"] != "degraded" {
		t.Errorf("health = %d %v, want degraded", resp.StatusCode, got)
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, _ := do(t, s, http.MethodGet, "/ws/status", nil)
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}

func TestUnboundController(t *testing.T) {
	s := NewServer(Config{}, nil, nil)
	resp, _ := do(t, s, http.MethodGet, "/api/status", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
