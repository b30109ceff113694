package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, gpu.PresentModeVSync, cfg.PresentMode())
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.FPSInterval())
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.ResizeDebounce())
	assert.Equal(t, 200*time.Millisecond, cfg.Engine.MoveDebounce())
	assert.Equal(t, time.Second/60, cfg.Engine.TickInterval())
	assert.Equal(t, float32(2.0), cfg.Camera.Speed)
	assert.Equal(t, float32(10.0), cfg.Camera.FastSpeed)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFileOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.toml")
	doc := `
[renderer]
present_mode = "uncapped"
frames_in_flight = 3

[scene]
cube_grid = 4
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, gpu.PresentModeUncapped, cfg.PresentMode())
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.Equal(t, 4, cfg.Scene.CubeGrid)
	assert.Equal(t, Default().Window, cfg.Window)
	assert.Equal(t, Default().Renderer.MSAA, cfg.Renderer.MSAA)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "[renderer]\nframes = 2\n"},
		{"bad present mode", "[renderer]\npresent_mode = \"triple\"\n"},
		{"bad msaa", "[renderer]\nmsaa = 3\n"},
		{"zero frames", "[renderer]\nframes_in_flight = 0\n"},
		{"negative grid", "[scene]\ncube_grid = -1\n"},
		{"zero tick", "[engine]\ntick_rate = 0\n"},
		{"malformed", "[window\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Decode([]byte(tt.doc), &cfg))
		})
	}
}

func TestEncodeRoundTripsDefaults(t *testing.T) {
	data, err := Encode(Default())
	require.NoError(t, err)

	cfg := Config{}
	require.NoError(t, Decode(data, &cfg))
	assert.Equal(t, Default(), cfg)
}
