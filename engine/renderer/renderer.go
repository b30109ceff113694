package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-frames/engine/logger"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_scheduler"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frames/engine/window"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu  *sync.Mutex
	log *slog.Logger

	window      window.Window
	backendType RendererBackendType
	backend     RendererBackend
	scheduler   frame_scheduler.FrameScheduler

	// Pre-creation config collected from builder options
	backendOptions  wgpuBackendOptions
	pipeline        pipeline.Pipeline
	registry        *model.Registry
	initialCapacity int

	released bool
}

// Renderer draws a scene into a window with a bounded number of frames in flight.
//
// This is a high-level API that hides the GPU backend and the frame scheduler behind a
// per-tick Update. Update, Stats and Release are serialized by the renderer, so the render loop may
// run on its own goroutine.
type Renderer interface {
	// Update renders one frame of the scene from the camera's point of view.
	//
	// Parameters:
	//   - camera: supplies the projection-view transform
	//   - scene: supplies the instances to draw
	//
	// Returns:
	//   - error: a fatal device error; the renderer must be released afterwards
	Update(camera frame_scheduler.Camera, scene frame_scheduler.Scene) error

	// NotifyResize schedules swapchain recreation at the window's current framebuffer size.
	// Safe to call from any goroutine.
	NotifyResize()

	// Stats returns the frame scheduler's counters.
	//
	// Returns:
	//   - frame_scheduler.Stats: submitted, skipped, rebuild, recreation and write counts
	Stats() frame_scheduler.Stats

	// Config returns the device configuration that was selected at startup.
	//
	// Returns:
	//   - gpu.DeviceConfig: adapter, present mode, sample count and frames in flight
	Config() gpu.DeviceConfig

	// Window returns the window the renderer presents to.
	Window() window.Window

	// Release waits for every frame in flight and destroys all GPU resources.
	//
	// Returns:
	//   - error: the first error raised while draining frames
	Release() error
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for the given window with the specified backend type.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if no adapter, device or swapchain could be created
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		log:         logger.With("renderer"),
		window:      window,
		backendType: backendType,
		backendOptions: wgpuBackendOptions{
			presentMode:    PresentModeVSync,
			sampleCount:    MSAA4x,
			framesInFlight: gpu.DefaultFramesInFlight,
		},
	}

	// Options first so adapter flags are known before the backend requests one.
	for _, opt := range options {
		opt(r)
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(window.SurfaceDescriptor(), window.Size, r.backendOptions, r.log)
	}
	if err != nil {
		return nil, fmt.Errorf("create renderer backend: %w", err)
	}

	schedulerOpts := []frame_scheduler.FrameSchedulerBuilderOption{}
	if r.pipeline != nil {
		schedulerOpts = append(schedulerOpts, frame_scheduler.WithPipeline(r.pipeline))
	}
	if r.registry != nil {
		schedulerOpts = append(schedulerOpts, frame_scheduler.WithRegistry(r.registry))
	}
	if r.initialCapacity > 0 {
		schedulerOpts = append(schedulerOpts, frame_scheduler.WithInitialCapacity(r.initialCapacity))
	}

	r.scheduler, err = frame_scheduler.NewFrameScheduler(r.backend, r.backend, schedulerOpts...)
	if err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("create frame scheduler: %w", err)
	}

	return r, nil
}

func (r *renderer) Update(camera frame_scheduler.Camera, scene frame_scheduler.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return fmt.Errorf("renderer released")
	}
	return r.scheduler.Update(camera, scene)
}

func (r *renderer) NotifyResize() {
	r.scheduler.NotifyResize()
}

func (r *renderer) Stats() frame_scheduler.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduler.Stats()
}

func (r *renderer) Config() gpu.DeviceConfig {
	return r.backend.Config()
}

func (r *renderer) Window() window.Window {
	return r.window
}

func (r *renderer) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil
	}
	r.released = true

	err := r.scheduler.Release()
	r.backend.Release()

	stats := r.scheduler.Stats()
	r.log.Info("renderer released",
		slog.Int("submitted", stats.Submitted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("recreations", stats.Recreations),
	)
	return err
}
