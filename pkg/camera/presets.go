package camera

// Preset is a named capture geometry.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Framerate   int    `json:"framerate"`
	Quality     int    `json:"quality"`
}

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

var presets = []Preset{
	{PresetDefault, "640x480 at 30 fps", 640, 480, 30, 80},
	// Classification runs on a smaller image, which is noticeably faster.
	{PresetLow, "320x240 at 15 fps for slow machines", 320, 240, 15, 70},
	{Preset720p, "1280x720 HD", 1280, 720, 30, 80},
	// Most webcams drop to 15 fps at this size anyway.
	{Preset1080p, "1920x1080 Full HD, high CPU use", 1920, 1080, 15, 80},
}

// Presets returns every preset in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetNames returns the preset names in display order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// LookupPreset finds a preset by name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Apply returns cfg with the preset geometry. Device and mirroring are
// not part of a preset and carry over.
func (p Preset) Apply(cfg Config) Config {
	cfg.Width = p.Width
	cfg.Height = p.Height
	cfg.Framerate = p.Framerate
	cfg.Quality = p.Quality
	return cfg
}
