package pipeline

import (
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_resources"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/shader"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the GPU object label
	pipelineKey string

	shader shader.Shader

	// The following properties are toggled with the builder options and copied into every
	// descriptor the pipeline produces.

	depthTestEnabled  bool
	depthWriteEnabled bool
	cullMode          gpu.CullMode
	frontFace         gpu.FrontFace
}

// Pipeline is the backend-neutral description of the instanced render pipeline.
//
// The GPU pipeline object itself embeds the viewport, so it is created from Descriptor for the
// current swapchain extent and recreated whenever that extent changes.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the WGSL module providing both entry points.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// CullMode returns the face culling mode configured for this pipeline.
	CullMode() gpu.CullMode

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() gpu.FrontFace

	// Descriptor produces the device descriptor of this pipeline for the given viewport.
	//
	// Parameters:
	//   - viewport: the extent of the render targets the pipeline draws into
	//
	// Returns:
	//   - gpu.PipelineDescriptor: the descriptor to pass to gpu.Device.CreatePipeline
	Descriptor(viewport gpu.Extent) gpu.PipelineDescriptor
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline. Without WithShader the built-in instanced shader is used.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          gpu.CullModeNone,
		frontFace:         gpu.FrontFaceCCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.shader == nil {
		p.shader = shader.Instanced()
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) CullMode() gpu.CullMode {
	return p.cullMode
}

func (p *pipeline) FrontFace() gpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) Descriptor(viewport gpu.Extent) gpu.PipelineDescriptor {
	return gpu.PipelineDescriptor{
		Label:          p.pipelineKey,
		ShaderSource:   p.shader.Source(),
		VertexEntry:    p.shader.VertexEntry(),
		FragmentEntry:  p.shader.FragmentEntry(),
		Viewport:       viewport,
		VertexStride:   frame_resources.VertexStride,
		InstanceStride: frame_resources.InstanceStride,
		UniformSize:    frame_resources.UniformSize,
		DepthTest:      p.depthTestEnabled,
		DepthWrite:     p.depthWriteEnabled,
		CullMode:       p.cullMode,
		FrontFace:      p.frontFace,
	}
}
