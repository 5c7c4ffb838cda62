package classifier

import (
	"log/slog"
	"time"
)

// Config holds backend configuration.
type Config struct {
	// Connection
	BaseURL string // Service base URL (DeepFace REST or remote websocket)

	// DetectorBackend is the face detector DeepFace should use
	// (opencv, ssd, mtcnn, retinaface, ...).
	DetectorBackend string

	// EnforceDetection makes DeepFace fail when no face is found instead
	// of analysing the whole frame.
	EnforceDetection bool

	// Quality is the JPEG quality used to ship frames.
	Quality int

	// Timeouts
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithBaseURL sets the service base URL.
// Examples: "http://localhost:5005", "ws://detector.local:8080/ws"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithDetectorBackend sets the DeepFace face detector backend.
func WithDetectorBackend(name string) Option {
	return func(c *Config) { c.DetectorBackend = name }
}

// WithEnforceDetection toggles DeepFace's enforce_detection flag.
func WithEnforceDetection(enforce bool) Option {
	return func(c *Config) { c.EnforceDetection = enforce }
}

// WithQuality sets the JPEG quality used for uploads.
func WithQuality(q int) Option {
	return func(c *Config) { c.Quality = q }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a local DeepFace service.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "http://localhost:5005",
		DetectorBackend:  "opencv",
		EnforceDetection: false,
		Quality:          85,
		Timeout:          10 * time.Second,
		Logger:           slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Quality < 1 || c.Quality > 100 {
		c.Quality = 85
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
