package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/camera"
	"github.com/Carmen-Shannon/oxy-frames/engine/config"
	"github.com/Carmen-Shannon/oxy-frames/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T) (*engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	e := newEngine(config.Default())
	e.now = clock.now
	e.camera = camera.NewCamera()
	e.scene = scene.NewScene("test", scene.WithObjects(scene.DefaultObjects()...))
	return e, clock
}

func TestInputMovement(t *testing.T) {
	in := newInputState()
	assert.Equal(t, camera.Movement{}, in.movement())

	in.press(common.KeyW)
	in.press(common.KeyD)
	in.press(common.KeySpace)
	in.press(common.KeyLeftShift)
	assert.Equal(t, camera.Movement{Forward: 1, Right: 1, Up: 1, Fast: true}, in.movement())

	// opposing keys cancel
	in.press(common.KeyS)
	in.press(common.KeyA)
	in.press(common.KeyLeftControl)
	assert.Equal(t, camera.Movement{Fast: true}, in.movement())

	in.release(common.KeyW)
	in.release(common.KeyLeftShift)
	assert.Equal(t, camera.Movement{Forward: -1}, in.movement())

	in.reset()
	assert.Equal(t, camera.Movement{}, in.movement())
}

func TestTickMovesCameraAndAdvancesScene(t *testing.T) {
	e, _ := newTestEngine(t)
	e.scene.ClearChanged()

	var ticks int
	var lastDt float32
	e.SetTickCallback(func(dt float32) {
		ticks++
		lastDt = dt
	})

	before := e.camera.ProjectionView()
	e.input.press(common.KeyW)
	e.tick(time.Second)

	pos := e.camera.Controller().Position()
	assert.InDelta(t, 0, pos[0], 1e-4)
	assert.InDelta(t, 0, pos[1], 1e-4)
	assert.InDelta(t, -2, pos[2], 1e-4, "default speed along the default view direction")

	assert.NotEqual(t, before, e.camera.ProjectionView())
	assert.True(t, e.scene.Changed(), "spinning cubes change the scene")
	assert.Equal(t, 1, ticks)
	assert.InDelta(t, 1.0, lastDt, 1e-6)
}

func TestTickFastMovement(t *testing.T) {
	e, _ := newTestEngine(t)
	e.input.press(common.KeySpace)
	e.input.press(common.KeyLeftShift)
	e.tick(500 * time.Millisecond)

	pos := e.camera.Controller().Position()
	assert.InDelta(t, 5, pos[1], 1e-4)
}

func TestPauseDebounce(t *testing.T) {
	e, clock := newTestEngine(t)
	assert.Zero(t, e.pausedFor())

	e.pause(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, e.pausedFor())

	// a longer pause extends, a shorter one does not shorten
	e.pause(200 * time.Millisecond)
	e.pause(10 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, e.pausedFor())

	clock.advance(150 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, e.pausedFor())

	clock.advance(time.Second)
	assert.Zero(t, e.pausedFor())

	e.pause(0)
	assert.Zero(t, e.pausedFor())
}

func TestSetTickRateBeforeRun(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, time.Second/60, e.engineTickRate)

	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, e.engineTickRate)

	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)
}

func TestSetTickRateWhileRunningReplacesPending(t *testing.T) {
	e, _ := newTestEngine(t)
	e.running.Store(true)

	e.SetTickRate(30)
	e.SetTickRate(90)

	require.Len(t, e.tickRateChannel, 1)
	assert.Equal(t, time.Duration(float64(time.Second)/90), <-e.tickRateChannel)
}

func TestRenderFrameLimit(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetRenderFrameLimit(100)
	assert.Equal(t, 10*time.Millisecond, e.renderFrameLimit)

	e.SetRenderFrameLimit(-1)
	assert.Zero(t, e.renderFrameLimit)

	WithRenderFrameLimit(50)(e)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
}

func TestQuitIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	e.running.Store(true)

	e.Quit()
	e.Quit()

	assert.False(t, e.running.Load())
	select {
	case <-e.quitChannel:
	default:
		t.Fatal("quit channel not closed")
	}
}

func TestRenderErrorKeepsFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.NoError(t, e.renderError())

	first := assert.AnError
	e.setRenderError(first)
	e.setRenderError(errors.New("second"))
	assert.ErrorIs(t, e.renderError(), first)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.TickRate = 0

	_, err := NewEngine(cfg)
	assert.ErrorContains(t, err, "invalid config")
}
