package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_resources"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("cubes")

	assert.Equal(t, "cubes", p.PipelineKey())
	assert.Equal(t, "instanced", p.Shader().Key())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, gpu.CullModeNone, p.CullMode())
	assert.Equal(t, gpu.FrontFaceCCW, p.FrontFace())
}

func TestDescriptorCarriesViewportAndLayout(t *testing.T) {
	p := NewPipeline("cubes", WithCullMode(gpu.CullModeBack), WithDepthWriteEnabled(false))
	extent := gpu.Extent{Width: 1280, Height: 720}

	d := p.Descriptor(extent)
	assert.Equal(t, extent, d.Viewport)
	assert.Equal(t, "vs_main", d.VertexEntry)
	assert.Equal(t, frame_resources.InstanceStride, d.InstanceStride)
	assert.Equal(t, uint64(80), d.InstanceStride)
	assert.Equal(t, uint64(12), d.VertexStride)
	assert.Equal(t, uint64(64), d.UniformSize)
	assert.Equal(t, gpu.CullModeBack, d.CullMode)
	assert.False(t, d.DepthWrite)
	assert.NotEmpty(t, d.ShaderSource)
}
