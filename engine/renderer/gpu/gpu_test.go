package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtent(t *testing.T) {
	assert.True(t, Extent{}.Empty())
	assert.True(t, Extent{Width: 10}.Empty())
	assert.False(t, Extent{Width: 10, Height: 5}.Empty())
	assert.Equal(t, float32(2), Extent{Width: 10, Height: 5}.Aspect())
	assert.Equal(t, float32(1), Extent{}.Aspect())
}

func TestReadyFence(t *testing.T) {
	f := Ready()
	assert.NoError(t, f.Wait())
	assert.True(t, IsReady(f))
}

func TestPresentModeRoundTrip(t *testing.T) {
	for _, m := range []PresentMode{PresentModeVSync, PresentModeUncapped} {
		parsed, err := ParsePresentMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParsePresentMode("mailbox")
	assert.Error(t, err)
}

func TestDeviceConfigFrames(t *testing.T) {
	assert.Equal(t, DefaultFramesInFlight, DeviceConfig{}.Frames())
	assert.Equal(t, 3, DeviceConfig{FramesInFlight: 3}.Frames())
}
