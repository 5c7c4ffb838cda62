package classifier

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

const backendRemote = "remote"

// remoteReply is the detector server's answer to one JPEG frame.
type remoteReply struct {
	Emotion map[string]float64 `json:"emotion"`
	Faces   *int               `json:"faces,omitempty"` // optional; 0 means no face
	Error   string             `json:"error,omitempty"`
}

// Remote classifies frames through a websocket detector server.
// Each request is one binary JPEG message answered by one JSON message.
// The connection is dialled lazily and redialled after any failure.
type Remote struct {
	url    string
	config *Config
	dialer *websocket.Dialer
	logger *slog.Logger

	mu     sync.Mutex // One request in flight; protects conn
	conn   *websocket.Conn
	closed bool
}

// NewRemote creates a websocket detector client.
func NewRemote(opts ...Option) (*Remote, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = ""
	cfg.Apply(opts...)

	if cfg.BaseURL == "" {
		return nil, WrapError(backendRemote, fmt.Errorf("websocket URL required"))
	}

	return &Remote{
		url:    cfg.BaseURL,
		config: cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "classifier.remote"),
	}, nil
}

// Classify sends the frame and waits for the detector's reply.
func (r *Remote) Classify(ctx context.Context, img image.Image) (emotion.Scores, error) {
	if img == nil {
		return nil, WrapError(backendRemote, ErrNoImage)
	}

	data, err := EncodeJPEG(img, r.config.Quality)
	if err != nil {
		return nil, WrapError(backendRemote, fmt.Errorf("encode image: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, WrapError(backendRemote, ErrClosed)
	}

	conn, err := r.connect(ctx)
	if err != nil {
		return nil, WrapError(backendRemote, err)
	}

	deadline := time.Now().Add(r.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		r.drop()
		return nil, WrapError(backendRemote, fmt.Errorf("send frame: %w", err))
	}

	var reply remoteReply
	if err := conn.ReadJSON(&reply); err != nil {
		r.drop()
		return nil, WrapError(backendRemote, fmt.Errorf("read reply: %w", err))
	}

	if reply.Error != "" {
		return nil, WrapError(backendRemote, fmt.Errorf("detector: %s", reply.Error))
	}
	if len(reply.Emotion) == 0 || (reply.Faces != nil && *reply.Faces == 0) {
		return nil, WrapError(backendRemote, ErrNoFace)
	}

	return emotion.Scores(reply.Emotion), nil
}

// connect returns the live connection, dialling if needed. Caller holds mu.
func (r *Remote) connect(ctx context.Context) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}

	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, r.url, err)
	}
	r.logger.Info("connected to detector", "url", r.url)
	r.conn = conn
	return conn, nil
}

// drop closes a broken connection so the next call redials. Caller holds mu.
func (r *Remote) drop() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

// Name returns the backend name.
func (r *Remote) Name() string {
	return backendRemote
}

// Health dials the detector if not connected.
func (r *Remote) Health(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return WrapError(backendRemote, ErrClosed)
	}
	_, err := r.connect(ctx)
	return WrapError(backendRemote, err)
}

// Close sends a close frame and releases the connection.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.conn == nil {
		return nil
	}
	r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := r.conn.Close()
	r.conn = nil
	return err
}

var _ Classifier = (*Remote)(nil)
