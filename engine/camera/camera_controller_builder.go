package camera

// CameraControllerOption is a functional option applied to a controller during construction via NewCameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the starting world-space position.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = [3]float32{x, y, z}
	}
}

// WithYawPitch sets the starting view angles in radians. Pitch is clamped.
//
// Parameters:
//   - yaw: horizontal angle, zero looks down +X
//   - pitch: vertical angle, positive looks up
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithYawPitch(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = pitch
	}
}

// WithSpeeds sets the normal and fast movement speeds in units per second.
//
// Parameters:
//   - normal: speed without Shift
//   - fast: speed with Shift held
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithSpeeds(normal, fast float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.speed = normal
		cc.fastSpeed = fast
	}
}

// WithMouseSensitivity sets the radians turned per pixel of mouse movement.
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}
