package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-moodcam/internal/httpc"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

const backendDeepFace = "deepface"

// DeepFace classifies frames through a DeepFace REST service
// (`deepface` API, POST /analyze with actions=["emotion"]).
type DeepFace struct {
	baseURL string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewDeepFace creates a new DeepFace client.
func NewDeepFace(opts ...Option) (*DeepFace, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, WrapError(backendDeepFace, fmt.Errorf("base URL required"))
	}

	return &DeepFace{
		baseURL: baseURL,
		config:  cfg,
		http:    httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "classifier.deepface"),
	}, nil
}

type analyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
	DetectorBackend  string   `json:"detector_backend,omitempty"`
	Align            bool     `json:"align"`
}

type analyzeResponse struct {
	Results []struct {
		Emotion         map[string]float64 `json:"emotion"`
		DominantEmotion string             `json:"dominant_emotion"`
		FaceConfidence  float64            `json:"face_confidence"`
	} `json:"results"`
}

// Classify uploads the frame and returns the first face's emotion scores.
func (d *DeepFace) Classify(ctx context.Context, img image.Image) (emotion.Scores, error) {
	if img == nil {
		return nil, WrapError(backendDeepFace, ErrNoImage)
	}
	start := time.Now()

	dataURL, err := EncodeImageDataURL(img, d.config.Quality)
	if err != nil {
		return nil, WrapError(backendDeepFace, fmt.Errorf("encode image: %w", err))
	}

	resp, err := httpc.PostJSON(ctx, d.http, d.baseURL+"/analyze", analyzeRequest{
		Img:              dataURL,
		Actions:          []string{"emotion"},
		EnforceDetection: d.config.EnforceDetection,
		DetectorBackend:  d.config.DetectorBackend,
		Align:            true,
	})
	if err != nil {
		return nil, WrapError(backendDeepFace, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, d.parseError(resp)
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(backendDeepFace, fmt.Errorf("decode response: %w", err))
	}

	if len(result.Results) == 0 || len(result.Results[0].Emotion) == 0 {
		return nil, WrapError(backendDeepFace, ErrNoFace)
	}

	first := result.Results[0]
	d.logger.Debug("analyzed frame",
		"dominant", first.DominantEmotion,
		"faces", len(result.Results),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return emotion.Scores(first.Emotion), nil
}

// Name returns the backend name.
func (d *DeepFace) Name() string {
	return backendDeepFace
}

// Health checks that the service answers on its root route.
func (d *DeepFace) Health(ctx context.Context) error {
	resp, err := httpc.Get(ctx, d.http, d.baseURL+"/")
	if err != nil {
		return WrapError(backendDeepFace, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return d.parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (d *DeepFace) Close() error {
	d.http.CloseIdleConnections()
	return nil
}

// parseError converts a non-200 response into an APIError.
// DeepFace reports failures as {"exception": "..."} or {"error": "..."}.
func (d *DeepFace) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Exception string `json:"exception"`
		Error     string `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Exception != "" {
			message = errResp.Exception
		} else if errResp.Error != "" {
			message = errResp.Error
		}
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Backend:    backendDeepFace,
	}
	if apiErr.IsBadRequest() && strings.Contains(strings.ToLower(message), "face could not be detected") {
		return fmt.Errorf("%w: %w", ErrNoFace, apiErr)
	}
	return apiErr
}

var _ Classifier = (*DeepFace)(nil)
