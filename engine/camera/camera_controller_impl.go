package camera

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/chewxy/math32"
)

// maxPitch keeps the view direction away from the world up axis, where LookAt degenerates.
const maxPitch float32 = math32.Pi/2 - 0.1

// cameraControllerImpl is the fly implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	front    [3]float32

	yaw   float32
	pitch float32

	speed            float32
	fastSpeed        float32
	mouseSensitivity float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a fly controller at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		yaw:              -math32.Pi / 2,
		speed:            2.0,
		fastSpeed:        10.0,
		mouseSensitivity: 0.003,
	}

	for _, option := range options {
		option(cc)
	}

	cc.updateFront()
	return cc
}

// updateFront recomputes the view direction from yaw and pitch. Caller must hold the mutex.
func (cc *cameraControllerImpl) updateFront() {
	cc.pitch = math32.Max(-maxPitch, math32.Min(maxPitch, cc.pitch))

	sp, cp := math32.Sincos(cc.pitch)
	sy, cy := math32.Sincos(cc.yaw)
	cc.front = [3]float32{cy * cp, sp, sy * cp}
}

func (cc *cameraControllerImpl) Position() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [3]float32{x, y, z}
}

func (cc *cameraControllerImpl) Front() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.front
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) Look(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw += dx * cc.mouseSensitivity
	cc.pitch -= dy * cc.mouseSensitivity
	cc.updateFront()
}

func (cc *cameraControllerImpl) Move(m Movement, dt time.Duration) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	speed := cc.speed
	if m.Fast {
		speed = cc.fastSpeed
	}
	step := speed * float32(dt.Seconds())
	if step == 0 {
		return
	}

	worldUp := [3]float32{0, 1, 0}
	right := common.Normalize(common.Cross(cc.front, worldUp))
	for i := range 3 {
		cc.position[i] += (cc.front[i]*m.Forward + right[i]*m.Right + worldUp[i]*m.Up) * step
	}
}

func (cc *cameraControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *cameraControllerImpl) FastSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.fastSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}
