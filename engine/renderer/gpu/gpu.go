// Package gpu is the device capability contract consumed by the frame pipeline.
//
// The swapchain manager, frame resource set, command submitter and frame scheduler only ever
// talk to a GPU through the interfaces declared here. The wgpu backend in package renderer
// implements them against a real adapter; package gputest implements them in memory.
package gpu

import "errors"

var (
	// ErrOutOfDate reports that the presentable image chain no longer matches the surface.
	// It is recoverable: the swapchain is recreated on the next update.
	ErrOutOfDate = errors.New("gpu: swapchain out of date")

	// ErrUnsupportedExtent reports that the surface cannot be configured at the requested size,
	// typically because the window is minimized to a zero-area extent.
	ErrUnsupportedExtent = errors.New("gpu: unsupported surface extent")

	// ErrDeviceLost reports that the device can no longer execute work. It is never recovered.
	ErrDeviceLost = errors.New("gpu: device lost")
)

// Extent is a size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether the extent has zero area.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Aspect returns width divided by height, or 1 for an empty extent.
func (e Extent) Aspect() float32 {
	if e.Empty() {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

// Fence is a GPU-to-CPU completion signal for one submission.
type Fence interface {
	// Wait blocks, without a timeout, until the submission that produced the fence has completed.
	//
	// Returns:
	//   - error: ErrDeviceLost (wrapped) if the device failed while waiting
	Wait() error
}

type readyFence struct{}

func (readyFence) Wait() error { return nil }

// Ready returns a fence that is already signaled. It is used as the upstream dependency of a
// submission when no earlier submission exists.
func Ready() Fence {
	return readyFence{}
}

// IsReady reports whether f is the already-signaled fence returned by Ready.
func IsReady(f Fence) bool {
	_, ok := f.(readyFence)
	return ok
}

// Acquisition is the result of acquiring a presentable image.
type Acquisition struct {
	// ImageIndex selects the frame slot and render target for this frame.
	ImageIndex int

	// Suboptimal is set when the image is usable but the chain should be recreated soon.
	Suboptimal bool

	// Token is backend-owned state carried from Acquire to Submit (the acquired texture).
	Token any
}

// Surface is the presentable side of a window.
type Surface interface {
	// Configure (re)creates the presentable image chain at the given extent.
	//
	// Parameters:
	//   - extent: the requested size in pixels
	//
	// Returns:
	//   - int: the number of presentable images in the new chain
	//   - error: ErrUnsupportedExtent if the extent cannot be used right now, or a fatal error
	Configure(extent Extent) (int, error)

	// Acquire blocks until the next presentable image is available.
	//
	// Returns:
	//   - Acquisition: the image index, suboptimal flag and backend token
	//   - error: ErrOutOfDate if the chain must be recreated, or a fatal error
	Acquire() (Acquisition, error)

	// Size returns the current pixel size of the window surface.
	Size() Extent
}
