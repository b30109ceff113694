package game_object

import "github.com/Carmen-Shannon/oxy-frames/engine/model"

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithKind sets the model the GameObject is drawn with.
//
// Parameters:
//   - k: the model kind
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the kind
func WithKind(k model.Kind) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.kind = k
	}
}

// WithEnabled sets whether the GameObject is drawn.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithPosition sets the initial world position of the GameObject.
//
// Parameters:
//   - x, y, z: position coordinates
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = [3]float32{x, y, z}
	}
}

// WithScale sets the uniform scale factor of the GameObject.
//
// Parameters:
//   - s: scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the scale
func WithScale(s float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = s
	}
}

// WithRotation sets the initial Euler rotation of the GameObject in radians.
//
// Parameters:
//   - rx, ry, rz: rotation angles around the X, Y, Z axes
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = [3]float32{rx, ry, rz}
	}
}

// WithRotationSpeed sets the rotation applied per second while the scene advances.
//
// Parameters:
//   - rx, ry, rz: rotation speed in radians per second around each axis
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation speed
func WithRotationSpeed(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotationSpeed = [3]float32{rx, ry, rz}
	}
}

// WithColor sets the RGBA color of the GameObject.
func WithColor(r, g, b, a float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.color = [4]float32{r, g, b, a}
	}
}
