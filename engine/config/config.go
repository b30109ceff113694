// Package config loads the demo's settings from an optional TOML file. Every value has a
// default, so a missing file or a partial one is valid.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/pelletier/go-toml/v2"
)

// Window holds the initial window settings.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Renderer holds the device and presentation settings.
type Renderer struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode          string `toml:"present_mode"`
	MSAA                 uint32 `toml:"msaa"`
	FramesInFlight       int    `toml:"frames_in_flight"`
	ForceFallbackAdapter bool   `toml:"force_fallback_adapter"`
	InitialCapacity      int    `toml:"initial_capacity"`
}

// Scene holds the generated content settings.
type Scene struct {
	// CubeGrid is the edge length of the generated cube grid; 0 disables it.
	CubeGrid int   `toml:"cube_grid"`
	Seed     int64 `toml:"seed"`
}

// Camera holds the fly camera settings.
type Camera struct {
	Speed       float32 `toml:"speed"`
	FastSpeed   float32 `toml:"fast_speed"`
	Sensitivity float32 `toml:"sensitivity"`
	FOV         float32 `toml:"fov"`
}

// Engine holds the loop timing settings. Intervals are in milliseconds.
type Engine struct {
	TickRate         int `toml:"tick_rate"`
	FPSIntervalMs    int `toml:"fps_interval_ms"`
	ResizeDebounceMs int `toml:"resize_debounce_ms"`
	MoveDebounceMs   int `toml:"move_debounce_ms"`
}

// Config is the full set of demo settings.
type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Scene    Scene    `toml:"scene"`
	Camera   Camera   `toml:"camera"`
	Engine   Engine   `toml:"engine"`
}

// Default returns the settings used when no file overrides them.
//
// Returns:
//   - Config: the default settings
func Default() Config {
	return Config{
		Window: Window{
			Title:  "oxy-frames",
			Width:  1280,
			Height: 720,
		},
		Renderer: Renderer{
			PresentMode:     "vsync",
			MSAA:            4,
			FramesInFlight:  gpu.DefaultFramesInFlight,
			InitialCapacity: 64,
		},
		Scene: Scene{
			CubeGrid: 10,
			Seed:     1,
		},
		Camera: Camera{
			Speed:       2.0,
			FastSpeed:   10.0,
			Sensitivity: 0.003,
			FOV:         45,
		},
		Engine: Engine{
			TickRate:         60,
			FPSIntervalMs:    1500,
			ResizeDebounceMs: 50,
			MoveDebounceMs:   200,
		},
	}
}

// Load reads the TOML file at path over the defaults. A path that does not exist yields the
// defaults. Unknown keys are rejected so typos do not pass silently.
//
// Parameters:
//   - path: the file to read, or "" for the defaults
//
// Returns:
//   - Config: the merged settings
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML data over cfg and validates the result.
//
// Parameters:
//   - data: the TOML document
//   - cfg: the settings to overwrite; keys missing from data are left untouched
//
// Returns:
//   - error: a decode or validation error
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys: %s", strict.String())
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return cfg.Validate()
}

// Encode renders cfg as a TOML document.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := gpu.ParsePresentMode(c.Renderer.PresentMode); err != nil {
		return err
	}
	switch c.Renderer.MSAA {
	case 1, 4, 8, 16:
	default:
		return fmt.Errorf("msaa %d must be one of 1, 4, 8, 16", c.Renderer.MSAA)
	}
	if c.Renderer.FramesInFlight < 1 {
		return fmt.Errorf("frames_in_flight %d must be at least 1", c.Renderer.FramesInFlight)
	}
	if c.Renderer.InitialCapacity < 0 {
		return fmt.Errorf("initial_capacity %d must not be negative", c.Renderer.InitialCapacity)
	}
	if c.Scene.CubeGrid < 0 {
		return fmt.Errorf("cube_grid %d must not be negative", c.Scene.CubeGrid)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("fov %v must be between 0 and 180 degrees", c.Camera.FOV)
	}
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("tick_rate %d must be positive", c.Engine.TickRate)
	}
	if c.Engine.FPSIntervalMs < 0 || c.Engine.ResizeDebounceMs < 0 || c.Engine.MoveDebounceMs < 0 {
		return errors.New("engine intervals must not be negative")
	}
	return nil
}

// PresentMode returns the parsed renderer present mode. The value is assumed validated.
func (c Config) PresentMode() gpu.PresentMode {
	m, _ := gpu.ParsePresentMode(c.Renderer.PresentMode)
	return m
}

// TickInterval returns the period of the simulation tick.
func (e Engine) TickInterval() time.Duration {
	return time.Second / time.Duration(e.TickRate)
}

// FPSInterval returns how often the profiler reports.
func (e Engine) FPSInterval() time.Duration {
	return time.Duration(e.FPSIntervalMs) * time.Millisecond
}

// ResizeDebounce returns how long drawing pauses after a resize.
func (e Engine) ResizeDebounce() time.Duration {
	return time.Duration(e.ResizeDebounceMs) * time.Millisecond
}

// MoveDebounce returns how long drawing pauses after the window moves.
func (e Engine) MoveDebounce() time.Duration {
	return time.Duration(e.MoveDebounceMs) * time.Millisecond
}
