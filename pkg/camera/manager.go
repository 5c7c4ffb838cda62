package camera

import (
	"fmt"
	"strings"
	"sync"
)

// Patch is a partial camera update as sent by the dashboard.
// Nil fields are left unchanged; Preset applies before the other fields.
type Patch struct {
	Preset    *string `json:"preset,omitempty"`
	Device    *string `json:"device,omitempty"`
	Width     *int    `json:"width,omitempty"`
	Height    *int    `json:"height,omitempty"`
	Framerate *int    `json:"framerate,omitempty"`
	Quality   *int    `json:"quality,omitempty"`
	Mirror    *bool   `json:"mirror,omitempty"`
}

// Apply returns cfg with the patch applied. It does not validate the result.
func (p Patch) Apply(cfg Config) (Config, error) {
	if p.Preset != nil {
		preset, ok := LookupPreset(*p.Preset)
		if !ok {
			return cfg, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, *p.Preset)
		}
		cfg = preset.Apply(cfg)
	}

	if p.Device != nil {
		cfg.Device = *p.Device
	}
	if p.Width != nil {
		cfg.Width = *p.Width
	}
	if p.Height != nil {
		cfg.Height = *p.Height
	}
	if p.Framerate != nil {
		cfg.Framerate = *p.Framerate
	}
	if p.Quality != nil {
		cfg.Quality = *p.Quality
	}
	if p.Mirror != nil {
		cfg.Mirror = *p.Mirror
	}
	return cfg, nil
}

// Manager holds the runtime camera configuration. Changes take effect
// the next time capture starts.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	revision  uint64
	listeners []func(Config)
}

// NewManager creates a new camera manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Revision counts accepted updates since the manager was created.
func (m *Manager) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// OnChange registers fn to be called after every accepted update.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// SetConfig validates and replaces the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	return m.commit(func(Config) (Config, error) { return cfg, nil })
}

// Update applies p on top of the current configuration and stores the
// result if it validates. A rejected patch leaves the config untouched.
// Concurrent updates are serialized so none is lost.
func (m *Manager) Update(p Patch) (Config, error) {
	var out Config
	err := m.commit(func(cur Config) (Config, error) {
		cfg, err := p.Apply(cur)
		out = cfg
		return cfg, err
	})
	if err != nil {
		return m.GetConfig(), err
	}
	return out, nil
}

// commit derives, validates and stores a new config under one lock, then
// notifies listeners outside it.
func (m *Manager) commit(next func(Config) (Config, error)) error {
	m.mu.Lock()
	cfg, err := next(m.config)
	if err == nil {
		if errs := cfg.Validate(); len(errs) > 0 {
			err = fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
		}
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = cfg
	m.revision++
	listeners := append([]func(Config){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}
