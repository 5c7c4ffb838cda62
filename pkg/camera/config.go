// Package camera provides webcam capture and runtime-configurable
// capture settings for the dashboard.
package camera

import (
	"strconv"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime and take effect
// the next time capture starts.
type Config struct {
	// Device is a capture device index ("0") or a file/stream URL.
	Device string `json:"device" toml:"device"`

	// === Resolution ===
	Width     int `json:"width" toml:"width"`         // Frame width in pixels
	Height    int `json:"height" toml:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" toml:"framerate"` // Requested FPS
	Quality   int `json:"quality" toml:"quality"`     // JPEG quality 1-100 for the dashboard feed

	// Mirror flips frames horizontally, selfie style.
	Mirror bool `json:"mirror" toml:"mirror"`
}

// Capture limits accepted by Validate.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the default webcam configuration: the first
// system camera at 640x480, mirrored.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
		Mirror:    true,
	}
}

// DeviceID returns the device as a numeric index when it is one,
// otherwise the raw string (a file path or stream URL).
func (c *Config) DeviceID() interface{} {
	if id, err := strconv.Atoi(c.Device); err == nil {
		return id
	}
	return c.Device
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device is required")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
