package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/camera"
	"github.com/Carmen-Shannon/oxy-frames/engine/config"
	"github.com/Carmen-Shannon/oxy-frames/engine/logger"
	"github.com/Carmen-Shannon/oxy-frames/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frames/engine/scene"
	"github.com/Carmen-Shannon/oxy-frames/engine/window"
	"github.com/chewxy/math32"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	log *slog.Logger
	cfg config.Config

	window          window.Window
	camera          camera.Camera
	scene           scene.Scene
	renderer        renderer.Renderer
	rendererOptions []renderer.RendererBuilderOption

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	input *inputState

	// resumeAt is the unix-nano time before which the render loop does not draw
	resumeAt atomic.Int64
	now      func() time.Time

	errMu     sync.Mutex
	renderErr error
}

// Engine is the main entry point for the demo.
// It owns the window, camera, scene and renderer and runs the tick, render and window loops.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Camera returns the fly camera driven by keyboard and mouse input.
	Camera() camera.Camera

	// Scene returns the scene being drawn.
	Scene() scene.Scene

	// Renderer returns the renderer presenting to the window.
	Renderer() renderer.Renderer

	// EnableProfiler enables periodic frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate after input, camera and scene updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render loops and runs the window message loop on the calling
	// goroutine, which must be the main thread. It blocks until the window closes or Quit is
	// called, then waits for every frame in flight and releases the renderer and window.
	//
	// Returns:
	//   - error: the fatal render error that stopped the engine, if any
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the window, camera, scene and renderer described by cfg. Components supplied
// through options are used instead of the ones cfg would create.
//
// Parameters:
//   - cfg: the demo settings
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: an invalid configuration or a renderer that could not be created
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := newEngine(cfg)
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		e.window = window.NewWindow(
			window.WithTitle(common.Coalesce(cfg.Window.Title, "oxy-frames")),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)
	}
	if e.camera == nil {
		e.camera = newCamera(cfg.Camera, e.window)
	}
	if e.scene == nil {
		e.scene = scene.NewScene("cubes",
			scene.WithObjects(scene.DefaultObjects()...),
			scene.WithCubeGrid(cfg.Scene.CubeGrid, cfg.Scene.Seed),
		)
	}
	if e.renderer == nil {
		opts := append([]renderer.RendererBuilderOption{
			renderer.WithPresentMode(cfg.PresentMode()),
			renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAA)),
			renderer.WithFramesInFlight(cfg.Renderer.FramesInFlight),
			renderer.WithInitialCapacity(cfg.Renderer.InitialCapacity),
			renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceFallbackAdapter),
		}, e.rendererOptions...)

		r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, e.window, opts...)
		if err != nil {
			_ = e.window.Close()
			return nil, err
		}
		e.renderer = r
	}

	e.log.Info("engine ready",
		slog.String("adapter", e.renderer.Config().AdapterName),
		slog.Int("objects", e.scene.ObjectCount()),
	)

	e.bindWindow()
	return e, nil
}

// newEngine returns an engine with defaults taken from cfg and no components.
func newEngine(cfg config.Config) *engine {
	return &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		log:              logger.With("engine"),
		cfg:              cfg,
		profiler:         profiler.NewProfiler(profiler.WithInterval(cfg.Engine.FPSInterval())),
		profilingEnabled: true,
		engineTickRate:   cfg.Engine.TickInterval(),
		input:            newInputState(),
		now:              time.Now,
	}
}

func newCamera(cfg config.Camera, w window.Window) camera.Camera {
	opts := []camera.CameraBuilderOption{
		camera.WithFov(cfg.FOV * math32.Pi / 180),
		camera.WithController(camera.NewCameraController(
			camera.WithSpeeds(cfg.Speed, cfg.FastSpeed),
			camera.WithMouseSensitivity(cfg.Sensitivity),
		)),
	}
	if width, height := w.Size(); width > 0 && height > 0 {
		opts = append(opts, camera.WithAspect(float32(width)/float32(height)))
	}
	return camera.NewCamera(opts...)
}

// bindWindow routes window events to the input state, camera and renderer.
// All callbacks run on the window's message loop thread.
func (e *engine) bindWindow() {
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		e.input.press(keyCode)
	})
	e.window.SetKeyUpCallback(func(keyCode uint32) {
		e.input.release(keyCode)
		if keyCode == common.KeyM {
			e.window.SetCursorCaptured(!e.window.CursorCaptured())
		}
	})
	e.window.SetMouseMoveCallback(func(dx, dy float32) {
		if !e.window.CursorCaptured() {
			return
		}
		if ctrl := e.camera.Controller(); ctrl != nil {
			ctrl.Look(dx, dy)
		}
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.camera.Zoom(delta)
	})
	e.window.SetResizeCallback(func(width, height int) {
		if width > 0 && height > 0 {
			e.camera.SetAspect(float32(width) / float32(height))
		}
		e.renderer.NotifyResize()
		e.pause(e.cfg.Engine.ResizeDebounce())
	})
	e.window.SetMoveCallback(func(x, y int) {
		e.pause(e.cfg.Engine.MoveDebounce())
	})
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
		default:
		}
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	e.running.Store(true)
	e.window.SetCursorCaptured(true)

	e.handle()
	e.window.ProcessMessages()

	// The window loop ended, either closed by the user or by Quit.
	e.signalQuit()
	e.wg.Wait()

	err := e.renderError()
	if relErr := e.renderer.Release(); relErr != nil {
		err = errors.Join(err, relErr)
	}
	if closeErr := e.window.Close(); closeErr != nil {
		e.log.Warn("close window", slog.Any("error", closeErr))
	}
	return err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Each tick applies held input to the camera, advances the scene and fires the tick callback.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := e.now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := e.now()
			dt := now.Sub(lastTick)
			lastTick = now
			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick advances the simulation by dt.
func (e *engine) tick(dt time.Duration) {
	if ctrl := e.camera.Controller(); ctrl != nil {
		ctrl.Move(e.input.movement(), dt)
	}
	e.camera.Update()
	e.scene.Advance(dt)

	if e.tickCallback != nil {
		e.tickCallback(float32(dt.Seconds()))
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Drawing is suspended while a resize or move debounce is pending.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("render goroutine recovered from panic", slog.Any("panic", r))
			e.setRenderError(fmt.Errorf("render panic: %v", r))
			e.signalQuit()
		}
	}()

	// The device and surface are driven from one OS thread for the life of the loop.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	lastRender := e.now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		if wait := e.pausedFor(); wait > 0 {
			select {
			case <-e.quitChannel:
				return
			case <-time.After(wait):
			}
			continue
		}

		now := e.now()
		dt := now.Sub(lastRender)
		lastRender = now

		if err := e.renderer.Update(e.camera, e.scene); err != nil {
			e.log.Error("render failed", slog.Any("error", err))
			e.setRenderError(err)
			e.signalQuit()
			return
		}

		if e.renderCallback != nil {
			e.renderCallback(float32(dt.Seconds()))
		}

		if e.profilingEnabled && e.profiler != nil {
			stats := e.renderer.Stats()
			e.profiler.Tick(
				slog.Int("submitted", stats.Submitted),
				slog.Int("skipped", stats.Skipped),
				slog.Int("rebuilds", stats.Rebuilds),
				slog.Int("recreations", stats.Recreations),
				slog.Int("instance_writes", stats.InstanceWrites),
			)
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			elapsed := e.now().Sub(now)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// pause suspends drawing for at least d. Overlapping pauses end at the latest deadline.
func (e *engine) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	until := e.now().Add(d).UnixNano()
	for {
		cur := e.resumeAt.Load()
		if cur >= until || e.resumeAt.CompareAndSwap(cur, until) {
			return
		}
	}
}

// pausedFor returns how long drawing stays suspended, or 0.
func (e *engine) pausedFor() time.Duration {
	remaining := time.Duration(e.resumeAt.Load() - e.now().UnixNano())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (e *engine) setRenderError(err error) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.renderErr == nil {
		e.renderErr = err
	}
}

func (e *engine) renderError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.renderErr
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}

	// Non-blocking send; a pending update is replaced by the newer rate.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
