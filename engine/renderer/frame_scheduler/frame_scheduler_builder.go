package frame_scheduler

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/pipeline"
)

// FrameSchedulerBuilderOption is a functional option applied to a frameScheduler during construction via NewFrameScheduler.
type FrameSchedulerBuilderOption func(*frameScheduler)

// WithRegistry sets the model registry whose order governs both instance packing and draw offsets.
// When not specified, every model kind is registered in declaration order.
//
// Parameters:
//   - r: the model registry
//
// Returns:
//   - FrameSchedulerBuilderOption: a function that applies the registry option
func WithRegistry(r *model.Registry) FrameSchedulerBuilderOption {
	return func(s *frameScheduler) {
		s.registry = r
	}
}

// WithPipeline sets the render pipeline description. When not specified, the built-in instanced
// pipeline is used.
//
// Parameters:
//   - p: the pipeline description
//
// Returns:
//   - FrameSchedulerBuilderOption: a function that applies the pipeline option
func WithPipeline(p pipeline.Pipeline) FrameSchedulerBuilderOption {
	return func(s *frameScheduler) {
		s.pipeline = p
	}
}

// WithInitialCapacity sets the number of instances each frame slot holds before its first growth.
//
// Parameters:
//   - n: the initial per-slot instance capacity
//
// Returns:
//   - FrameSchedulerBuilderOption: a function that applies the capacity option
func WithInitialCapacity(n int) FrameSchedulerBuilderOption {
	return func(s *frameScheduler) {
		s.initialCapacity = n
	}
}

// WithLogger replaces the scheduler's logger.
func WithLogger(l *slog.Logger) FrameSchedulerBuilderOption {
	return func(s *frameScheduler) {
		if l != nil {
			s.log = l
		}
	}
}
