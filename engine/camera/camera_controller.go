package camera

import "time"

// Movement is the directional input held during one tick. Each axis is -1, 0 or 1.
type Movement struct {
	// Forward moves along the view direction (W positive, S negative).
	Forward float32

	// Right strafes along the camera's right vector (D positive, A negative).
	Right float32

	// Up moves along the world up axis (Space positive, Ctrl negative).
	Up float32

	// Fast selects the fast speed (Shift).
	Fast bool
}

// CameraController defines a first-person fly controller.
// Controllers own positional state (position, yaw, pitch). Camera reads from the controller
// and computes view/projection matrices.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: world-space camera position
	Position() [3]float32

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Front returns the unit view direction derived from yaw and pitch.
	//
	// Returns:
	//   - [3]float32: the normalized view direction
	Front() [3]float32

	// Yaw returns the horizontal view angle in radians. Zero looks down +X.
	Yaw() float32

	// Pitch returns the vertical view angle in radians, within ±(π/2 - 0.1).
	Pitch() float32

	// Look turns the view by a mouse movement. Moving the mouse down looks down.
	//
	// Parameters:
	//   - dx, dy: cursor movement in pixels, scaled by the mouse sensitivity
	Look(dx, dy float32)

	// Move translates the camera for one tick of held input.
	//
	// Parameters:
	//   - m: the held directions
	//   - dt: the time the input was held
	Move(m Movement, dt time.Duration)

	// Speed returns the normal movement speed in units per second.
	Speed() float32

	// FastSpeed returns the movement speed used while Fast is held.
	FastSpeed() float32

	// MouseSensitivity returns the radians turned per pixel of mouse movement.
	MouseSensitivity() float32
}
