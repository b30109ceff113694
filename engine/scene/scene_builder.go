package scene

import (
	"github.com/Carmen-Shannon/oxy-frames/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithCubeGrid adds an n*n*n grid of jittered cubes generated from seed.
//
// Parameters:
//   - n: the grid edge length; 0 adds nothing
//   - seed: the random seed
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCubeGrid(n int, seed int64) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range GenerateCubeGrid(n, seed) {
			s.add(obj)
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used to build instance records for
// large scenes. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithParallelThreshold sets the object count of a kind at which AppendInstances switches to
// the worker pool.
func WithParallelThreshold(n int) SceneBuilderOption {
	return func(s *scene) {
		s.parallelThreshold = n
	}
}
