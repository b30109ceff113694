package gputest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
)

// Surface is a fake gpu.Surface that hands out images round-robin.
type Surface struct {
	mu *sync.Mutex

	// Images is the number of presentable images each Configure reports.
	Images int

	// AcquireErr, when set, is consulted on every Acquire with the 1-based attempt number.
	AcquireErr func(attempt int) error

	// Suboptimal, when set, marks the acquisition of the given attempt as suboptimal.
	Suboptimal func(attempt int) bool

	size       gpu.Extent
	configured []gpu.Extent
	attempts   int
	next       int
}

var _ gpu.Surface = &Surface{}

// NewSurface creates a fake surface of the given window size and image count.
func NewSurface(size gpu.Extent, images int) *Surface {
	return &Surface{
		mu:     &sync.Mutex{},
		Images: images,
		size:   size,
	}
}

func (s *Surface) Configure(extent gpu.Extent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if extent.Empty() {
		return 0, fmt.Errorf("gputest: configure %dx%d: %w", extent.Width, extent.Height, gpu.ErrUnsupportedExtent)
	}
	s.configured = append(s.configured, extent)
	s.next = 0
	return s.Images, nil
}

func (s *Surface) Acquire() (gpu.Acquisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.AcquireErr != nil {
		if err := s.AcquireErr(s.attempts); err != nil {
			return gpu.Acquisition{}, err
		}
	}
	if len(s.configured) == 0 {
		return gpu.Acquisition{}, fmt.Errorf("gputest: acquire before configure")
	}

	a := gpu.Acquisition{ImageIndex: s.next, Token: s.attempts}
	if s.Suboptimal != nil {
		a.Suboptimal = s.Suboptimal(s.attempts)
	}
	s.next = (s.next + 1) % s.Images
	return a, nil
}

func (s *Surface) Size() gpu.Extent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Resize changes the size reported by Size, as a window resize would.
func (s *Surface) Resize(size gpu.Extent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
}

// Configured returns every extent the surface was successfully configured at.
func (s *Surface) Configured() []gpu.Extent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gpu.Extent(nil), s.configured...)
}
