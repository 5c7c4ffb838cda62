// Package config loads moodcam settings.
//
// Priority, highest first: command-line flags (applied by cmd/moodcam),
// MOODCAM_* environment variables, the TOML config file, defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/teslashibe/go-moodcam/pkg/camera"
)

// Classifier backend names.
const (
	BackendDeepFace = "deepface"
	BackendFERPlus  = "ferplus"
	BackendRemote   = "remote"
)

// Backends lists the known classifier backends.
var Backends = []string{BackendDeepFace, BackendFERPlus, BackendRemote}

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as "2s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the root of the config file.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Capture    CaptureConfig    `toml:"capture"`
	Camera     camera.Config    `toml:"camera"`
	Classifier ClassifierConfig `toml:"classifier"`
}

// ServerConfig configures the dashboard.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	AccessLog bool   `toml:"access_log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Debug  bool   `toml:"debug"`  // Verbose console output
	Frames bool   `toml:"frames"` // Per-frame logs (very verbose)
}

// CaptureConfig configures the capture loop.
type CaptureConfig struct {
	Interval    Duration `toml:"interval"`     // Minimum time between classifications
	FramePeriod Duration `toml:"frame_period"` // Pause between frames
	HistorySize int      `toml:"history_size"`
	Autostart   bool     `toml:"autostart"`
}

// ClassifierConfig selects and configures classifier backends.
type ClassifierConfig struct {
	// Backends are tried in order; more than one forms a fallback chain.
	Backends []string `toml:"backends"`

	DeepFaceURL      string   `toml:"deepface_url"`
	DetectorBackend  string   `toml:"detector_backend"`
	EnforceDetection bool     `toml:"enforce_detection"`
	Quality          int      `toml:"quality"`
	Timeout          Duration `toml:"timeout"`

	RemoteURL string `toml:"remote_url"`

	FERPlusModel string `toml:"ferplus_model"`
	FaceModel    string `toml:"face_model"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8501"},
		Log:    LogConfig{Level: "info"},
		Capture: CaptureConfig{
			Interval:    Duration{2 * time.Second},
			FramePeriod: Duration{50 * time.Millisecond},
			HistorySize: 20,
		},
		Camera: camera.DefaultConfig(),
		Classifier: ClassifierConfig{
			Backends:        []string{BackendDeepFace},
			DeepFaceURL:     "http://localhost:5005",
			DetectorBackend: "opencv",
			Quality:         85,
			Timeout:         Duration{10 * time.Second},
			FERPlusModel:    "models/emotion-ferplus-8.onnx",
			FaceModel:       "models/face_detection_yunet_2023mar.onnx",
		},
	}
}

// Path returns the default config file location, ~/.moodcam/config.toml.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "moodcam.toml"
	}
	return filepath.Join(home, ".moodcam", "config.toml")
}

// Load reads the config file at path over the defaults. An empty path
// means Path(), which may be absent; an explicit path must exist.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var missing *toml.StrictMissingError
		if errors.As(err, &missing) {
			keys := make([]string, len(missing.Errors))
			for i, e := range missing.Errors {
				keys[i] = strings.Join(e.Key(), ".")
			}
			return cfg, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("config: %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from MOODCAM_* environment variables.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *Duration) {
		if v := os.Getenv(key); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("MOODCAM_ADDR", &c.Server.Addr)
	str("MOODCAM_LOG_LEVEL", &c.Log.Level)
	boolean("MOODCAM_DEBUG", &c.Log.Debug)
	duration("MOODCAM_INTERVAL", &c.Capture.Interval)
	boolean("MOODCAM_AUTOSTART", &c.Capture.Autostart)
	str("MOODCAM_DEVICE", &c.Camera.Device)
	str("MOODCAM_DEEPFACE_URL", &c.Classifier.DeepFaceURL)
	str("MOODCAM_DETECTOR_BACKEND", &c.Classifier.DetectorBackend)
	str("MOODCAM_REMOTE_URL", &c.Classifier.RemoteURL)
	str("MOODCAM_FERPLUS_MODEL", &c.Classifier.FERPlusModel)
	str("MOODCAM_FACE_MODEL", &c.Classifier.FaceModel)
	if v := os.Getenv("MOODCAM_CLASSIFIER"); v != "" {
		c.Classifier.Backends = SplitList(v)
	}

	return errors.Join(errs...)
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Capture.Interval.Duration <= 0 {
		problems = append(problems, "capture.interval must be positive")
	}
	if c.Capture.FramePeriod.Duration <= 0 {
		problems = append(problems, "capture.frame_period must be positive")
	}
	if c.Capture.HistorySize < 1 {
		problems = append(problems, "capture.history_size must be at least 1")
	}
	for _, p := range c.Camera.Validate() {
		problems = append(problems, "camera: "+p)
	}

	if len(c.Classifier.Backends) == 0 {
		problems = append(problems, "classifier.backends must name at least one backend")
	}
	for _, b := range c.Classifier.Backends {
		switch b {
		case BackendDeepFace:
			if c.Classifier.DeepFaceURL == "" {
				problems = append(problems, "classifier.deepface_url is required for deepface")
			}
		case BackendRemote:
			if c.Classifier.RemoteURL == "" {
				problems = append(problems, "classifier.remote_url is required for remote")
			}
		case BackendFERPlus:
			if c.Classifier.FERPlusModel == "" {
				problems = append(problems, "classifier.ferplus_model is required for ferplus")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown classifier backend %q (want one of %s)",
				b, strings.Join(Backends, ", ")))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
