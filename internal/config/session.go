package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// SessionConfig is the declarative definition of one compositing session:
// scenes, destinations, bitrate policy and overlay rotation.
type SessionConfig struct {
	TransitionDuration string            `toml:"transition_duration"`
	Scenes             []SceneSpec       `toml:"scenes"`
	Destinations       []DestinationSpec `toml:"destinations"`
	Bitrate            BitrateSpec       `toml:"bitrate"`
	Overlay            OverlaySpec       `toml:"overlay"`
	PluginDir          string            `toml:"plugin_dir"`
}

// SceneSpec declares one compositor layout.
type SceneSpec struct {
	Name    string       `toml:"name"`
	Sources []SourceSpec `toml:"sources"`
}

// SourceSpec places one video source on a compositor pad. Kind is the
// element kind to instantiate for the source node.
type SourceSpec struct {
	Node   string  `toml:"node"`
	Kind   string  `toml:"kind"`
	Pad    uint    `toml:"pad"`
	X      int     `toml:"x"`
	Y      int     `toml:"y"`
	Width  uint    `toml:"width"`
	Height uint    `toml:"height"`
	Alpha  float64 `toml:"alpha"`
}

// DestinationSpec declares one streaming destination.
type DestinationSpec struct {
	Protocol string `toml:"protocol"` // rtmp, srt or hls
	Target   string `toml:"target"`   // location, uri or directory
}

// BitrateSpec bounds the adaptive bitrate loop.
type BitrateSpec struct {
	InitialKbps   uint64 `toml:"initial_kbps"`
	MinKbps       uint64 `toml:"min_kbps"`
	MaxKbps       uint64 `toml:"max_kbps"`
	CheckInterval string `toml:"check_interval"`
}

// OverlaySpec declares the rotating text overlay.
type OverlaySpec struct {
	Enabled  bool     `toml:"enabled"`
	Font     string   `toml:"font"`
	Messages []string `toml:"messages"`
	Interval string   `toml:"interval"`
}

// LoadSession reads and validates a session definition file.
func LoadSession(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session config: %w", err)
	}
	var cfg SessionConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse session config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the session definition for internal consistency.
func (c *SessionConfig) Validate() error {
	if len(c.Scenes) == 0 {
		return fmt.Errorf("at least one scene required")
	}
	names := make(map[string]bool)
	for i, scene := range c.Scenes {
		if scene.Name == "" {
			return fmt.Errorf("scene %d has no name", i)
		}
		if names[scene.Name] {
			return fmt.Errorf("duplicate scene name %q", scene.Name)
		}
		names[scene.Name] = true

		pads := make(map[uint]bool)
		for _, src := range scene.Sources {
			if src.Node == "" {
				return fmt.Errorf("scene %q: source on pad %d has no node name", scene.Name, src.Pad)
			}
			if pads[src.Pad] {
				return fmt.Errorf("scene %q: duplicate compositor pad %d", scene.Name, src.Pad)
			}
			pads[src.Pad] = true
			if src.Alpha < 0 || src.Alpha > 1 {
				return fmt.Errorf("scene %q pad %d: alpha %v outside [0, 1]", scene.Name, src.Pad, src.Alpha)
			}
		}
	}

	for _, dest := range c.Destinations {
		switch dest.Protocol {
		case "rtmp", "srt", "hls":
		default:
			return fmt.Errorf("unknown destination protocol %q", dest.Protocol)
		}
		if dest.Target == "" {
			return fmt.Errorf("%s destination has no target", dest.Protocol)
		}
	}

	if c.Bitrate.MinKbps > c.Bitrate.MaxKbps {
		return fmt.Errorf("bitrate min %d exceeds max %d", c.Bitrate.MinKbps, c.Bitrate.MaxKbps)
	}
	if _, err := c.ParseTransitionDuration(); err != nil {
		return err
	}
	if _, err := c.ParseCheckInterval(); err != nil {
		return err
	}
	if _, err := c.ParseOverlayInterval(); err != nil {
		return err
	}
	return nil
}

// ParseTransitionDuration returns the fade duration, defaulting to 500ms.
func (c *SessionConfig) ParseTransitionDuration() (time.Duration, error) {
	return parseDuration(c.TransitionDuration, 500*time.Millisecond, "transition_duration")
}

// ParseCheckInterval returns the bitrate check interval, defaulting to 5s.
func (c *SessionConfig) ParseCheckInterval() (time.Duration, error) {
	return parseDuration(c.Bitrate.CheckInterval, 5*time.Second, "bitrate.check_interval")
}

// ParseOverlayInterval returns the overlay rotation interval, defaulting
// to 10s.
func (c *SessionConfig) ParseOverlayInterval() (time.Duration, error) {
	return parseDuration(c.Overlay.Interval, 10*time.Second, "overlay.interval")
}

func parseDuration(s string, fallback time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return d, nil
}
