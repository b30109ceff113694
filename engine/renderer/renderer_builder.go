package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline replaces the built-in instanced pipeline description.
//
// Parameters:
//   - p: the Pipeline to draw every model with
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipeline = p
	}
}

// WithRegistry sets the model registry. When not specified, every model kind is registered.
//
// Parameters:
//   - reg: the model registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry option to a renderer
func WithRegistry(reg *model.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.registry = reg
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.backendOptions.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.backendOptions.sampleCount = count
	}
}

// WithFramesInFlight sets how many frames may be queued on the GPU at once. Values below 1
// select the default of 2.
//
// Parameters:
//   - n: the number of frame slots
//
// Returns:
//   - RendererBuilderOption: a function that applies the frames-in-flight option to a renderer
func WithFramesInFlight(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.backendOptions.framesInFlight = n
	}
}

// WithInitialCapacity sets the per-slot instance capacity allocated up front.
//
// Parameters:
//   - n: the number of instances each slot holds before its first growth
//
// Returns:
//   - RendererBuilderOption: a function that applies the capacity option to a renderer
func WithInitialCapacity(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.initialCapacity = n
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.backendOptions.forceFallbackAdapter = force
	}
}

// WithLogger replaces the renderer's logger.
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if l != nil {
			r.log = l
		}
	}
}
