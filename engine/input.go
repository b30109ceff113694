package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/camera"
)

// inputState tracks held keys between window callbacks and engine ticks.
type inputState struct {
	mu   *sync.Mutex
	held map[uint32]bool
}

func newInputState() *inputState {
	return &inputState{
		mu:   &sync.Mutex{},
		held: make(map[uint32]bool),
	}
}

func (in *inputState) press(key uint32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.held[key] = true
}

func (in *inputState) release(key uint32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.held, key)
}

// reset drops every held key, for when the window stops delivering key-up events.
func (in *inputState) reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	clear(in.held)
}

// movement maps the held keys to camera movement. Opposing keys cancel out.
func (in *inputState) movement() camera.Movement {
	in.mu.Lock()
	defer in.mu.Unlock()

	var m camera.Movement
	m.Forward = axis(in.held[common.KeyW], in.held[common.KeyS])
	m.Right = axis(in.held[common.KeyD], in.held[common.KeyA])
	m.Up = axis(in.held[common.KeySpace], in.held[common.KeyLeftControl])
	m.Fast = in.held[common.KeyLeftShift] || in.held[common.KeyRightShift]
	return m
}

func axis(positive, negative bool) float32 {
	var v float32
	if positive {
		v++
	}
	if negative {
		v--
	}
	return v
}
