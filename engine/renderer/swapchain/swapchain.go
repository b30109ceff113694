package swapchain

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-frames/engine/logger"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
)

// swapchain is the implementation of the Swapchain interface.
type swapchain struct {
	mu *sync.Mutex

	device  gpu.Device
	surface gpu.Surface
	log     *slog.Logger

	extent     gpu.Extent
	targets    []gpu.RenderTarget
	generation int
}

// Swapchain owns the presentable image chain of a surface and the render targets derived from it.
//
// A Swapchain starts empty. Recreate builds the first generation and every later one; each
// generation invalidates the render targets returned by the previous one, so anything recorded
// against them must be rebuilt before the next acquisition is consumed.
type Swapchain interface {
	// Acquire blocks until the next presentable image of the current generation is available.
	//
	// Returns:
	//   - gpu.Acquisition: the acquired image index, suboptimal flag and backend token
	//   - error: gpu.ErrOutOfDate (wrapped) when the chain must be recreated, or a fatal error
	Acquire() (gpu.Acquisition, error)

	// Recreate configures the surface at extent and rebuilds one render target per image.
	// An extent the surface cannot use right now, such as the zero-area extent of a minimized
	// window, leaves the current generation untouched and reports false with a nil error.
	//
	// Parameters:
	//   - extent: the new size in pixels
	//
	// Returns:
	//   - bool: true if a new generation was created
	//   - error: a fatal configuration or resource creation error
	Recreate(extent gpu.Extent) (bool, error)

	// Targets returns the render targets of the current generation, indexed by image index.
	Targets() []gpu.RenderTarget

	// Extent returns the size of the current generation.
	Extent() gpu.Extent

	// ImageCount returns the number of presentable images in the current generation.
	ImageCount() int

	// Generation returns how many generations have been created. Zero means none yet.
	Generation() int

	// Release frees the render targets of the current generation.
	Release()
}

var _ Swapchain = &swapchain{}

// NewSwapchain creates an empty Swapchain over the given device and surface.
//
// Parameters:
//   - device: the device render targets are created on
//   - surface: the window surface to configure
//   - options: variadic list of SwapchainBuilderOption functions
//
// Returns:
//   - Swapchain: a Swapchain with no generation; call Recreate before Acquire
func NewSwapchain(device gpu.Device, surface gpu.Surface, options ...SwapchainBuilderOption) Swapchain {
	s := &swapchain{
		mu:      &sync.Mutex{},
		device:  device,
		surface: surface,
		log:     logger.With("swapchain"),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

func (s *swapchain) Acquire() (gpu.Acquisition, error) {
	s.mu.Lock()
	count := len(s.targets)
	s.mu.Unlock()

	if count == 0 {
		return gpu.Acquisition{}, fmt.Errorf("acquire with no swapchain: %w", gpu.ErrOutOfDate)
	}

	a, err := s.surface.Acquire()
	if err != nil {
		return gpu.Acquisition{}, err
	}
	if a.ImageIndex < 0 || a.ImageIndex >= count {
		return gpu.Acquisition{}, fmt.Errorf("acquired image %d of %d: %w", a.ImageIndex, count, gpu.ErrOutOfDate)
	}
	return a, nil
}

func (s *swapchain) Recreate(extent gpu.Extent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if extent.Empty() {
		s.log.Debug("skipping recreation for empty extent", "width", extent.Width, "height", extent.Height)
		return false, nil
	}

	images, err := s.surface.Configure(extent)
	if errors.Is(err, gpu.ErrUnsupportedExtent) {
		s.log.Debug("surface rejected extent", "width", extent.Width, "height", extent.Height)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("configure surface %dx%d: %w", extent.Width, extent.Height, err)
	}
	if images < 1 {
		return false, fmt.Errorf("configure surface %dx%d: surface reported %d images", extent.Width, extent.Height, images)
	}

	targets, err := s.device.CreateRenderTargets(extent, images)
	if errors.Is(err, gpu.ErrUnsupportedExtent) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create render targets %dx%d: %w", extent.Width, extent.Height, err)
	}

	for _, t := range s.targets {
		t.Release()
	}
	s.targets = targets
	s.extent = extent
	s.generation++

	s.log.Info("swapchain created",
		"generation", s.generation,
		"width", extent.Width,
		"height", extent.Height,
		"images", images,
	)
	return true, nil
}

func (s *swapchain) Targets() []gpu.RenderTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets
}

func (s *swapchain) Extent() gpu.Extent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extent
}

func (s *swapchain) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

func (s *swapchain) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *swapchain) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.targets {
		t.Release()
	}
	s.targets = nil
}
