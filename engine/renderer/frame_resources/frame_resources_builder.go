package frame_resources

import "log/slog"

// FrameResourcesBuilderOption is a functional option applied to a frameResources during construction via NewFrameResources.
type FrameResourcesBuilderOption func(*frameResources)

// WithInitialCapacity sets the number of instances each slot can hold before the first growth.
// The value is rounded up to a power of two.
//
// Parameters:
//   - n: the initial per-slot instance capacity
//
// Returns:
//   - FrameResourcesBuilderOption: a function that applies the capacity option
func WithInitialCapacity(n int) FrameResourcesBuilderOption {
	return func(f *frameResources) {
		if n > 0 {
			f.initialCapacity = n
		}
	}
}

// WithLogger replaces the logger used for allocation events.
func WithLogger(l *slog.Logger) FrameResourcesBuilderOption {
	return func(f *frameResources) {
		if l != nil {
			f.log = l
		}
	}
}
