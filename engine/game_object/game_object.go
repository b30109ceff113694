package game_object

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/chewxy/math32"
)

type gameObject struct {
	mu *sync.Mutex

	id      uint64
	kind    model.Kind
	enabled atomic.Bool

	position      [3]float32
	rotation      [3]float32
	rotationSpeed [3]float32
	scale         float32
	color         [4]float32

	// model is rebuilt lazily from the transform when dirty
	model [16]float32
	dirty bool

	onChange func()
}

// GameObject defines the interface for a drawable scene entity: one instance of a registered
// model kind with its own transform and color.
//
// Every mutation notifies the owning scene so it can mark its instance data stale.
type GameObject interface {
	// ID returns the object's unique identifier, assigned by the scene when zero.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Kind returns the model the object is drawn with.
	//
	// Returns:
	//   - model.Kind: the object's model kind
	Kind() model.Kind

	// Enabled returns whether this object is drawn.
	Enabled() bool

	// Position returns the world-space position.
	Position() [3]float32

	// Rotation returns the Euler rotation in radians around the X, Y and Z axes.
	Rotation() [3]float32

	// RotationSpeed returns the rotation applied per second by Advance, in radians.
	RotationSpeed() [3]float32

	// Scale returns the uniform scale factor.
	Scale() float32

	// Color returns the RGBA color.
	Color() [4]float32

	// InstanceData returns the per-instance record (model matrix and color) for this object.
	//
	// Returns:
	//   - common.InstanceData: the record uploaded for instanced drawing
	InstanceData() common.InstanceData

	// Advance applies the rotation speed over dt.
	//
	// Parameters:
	//   - dt: elapsed time
	//
	// Returns:
	//   - bool: true if the object changed
	Advance(dt time.Duration) bool

	// SetID sets the object's unique identifier.
	SetID(id uint64)

	// SetEnabled sets whether the object is drawn.
	SetEnabled(enabled bool)

	// SetPosition moves the object.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles
	SetRotation(rx, ry, rz float32)

	// SetRotationSpeed sets the rotation applied per second by Advance.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation speed values in radians per second
	SetRotationSpeed(rx, ry, rz float32)

	// SetScale sets the uniform scale factor.
	SetScale(s float32)

	// SetColor sets the RGBA color.
	SetColor(r, g, b, a float32)

	// SetChangeHook registers the function called after every mutation. The scene installs
	// it when the object is added; pass nil to detach.
	SetChangeHook(fn func())
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options. Objects start
// enabled as white cubes at the origin with a scale of 0.5.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:    &sync.Mutex{},
		kind:  model.KindCube,
		scale: 0.5,
		color: [4]float32{1, 1, 1, 1},
		dirty: true,
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

// NewCube creates a cube at the given position with the given color.
func NewCube(position [3]float32, color [3]float32, options ...GameObjectBuilderOption) GameObject {
	opts := append([]GameObjectBuilderOption{
		WithKind(model.KindCube),
		WithPosition(position[0], position[1], position[2]),
		WithColor(color[0], color[1], color[2], 1),
	}, options...)
	return NewGameObject(opts...)
}

// NewSquare creates a square at the given position with the given color.
func NewSquare(position [3]float32, color [3]float32, options ...GameObjectBuilderOption) GameObject {
	opts := append([]GameObjectBuilderOption{
		WithKind(model.KindSquare),
		WithPosition(position[0], position[1], position[2]),
		WithColor(color[0], color[1], color[2], 1),
	}, options...)
	return NewGameObject(opts...)
}

func (g *gameObject) ID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

func (g *gameObject) Kind() model.Kind {
	return g.kind
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Position() [3]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) Rotation() [3]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotation
}

func (g *gameObject) RotationSpeed() [3]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotationSpeed
}

func (g *gameObject) Scale() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

func (g *gameObject) Color() [4]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.color
}

func (g *gameObject) InstanceData() common.InstanceData {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dirty {
		common.BuildModelMatrix(g.model[:], g.position, g.rotation, g.scale)
		g.dirty = false
	}
	return common.InstanceData{Model: g.model, Color: g.color}
}

func (g *gameObject) Advance(dt time.Duration) bool {
	g.mu.Lock()
	if g.rotationSpeed == [3]float32{} || dt <= 0 {
		g.mu.Unlock()
		return false
	}
	secs := float32(dt.Seconds())
	for i := range g.rotation {
		g.rotation[i] = wrapAngle(g.rotation[i] + g.rotationSpeed[i]*secs)
	}
	g.dirty = true
	g.mu.Unlock()

	g.changed()
	return true
}

// wrapAngle keeps an angle in [-π, π) so long-running rotations keep their precision.
func wrapAngle(a float32) float32 {
	return a - 2*math32.Pi*math32.Floor((a+math32.Pi)/(2*math32.Pi))
}

func (g *gameObject) SetID(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	if g.enabled.Swap(enabled) != enabled {
		g.changed()
	}
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	g.position = [3]float32{x, y, z}
	g.dirty = true
	g.mu.Unlock()
	g.changed()
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	g.rotation = [3]float32{rx, ry, rz}
	g.dirty = true
	g.mu.Unlock()
	g.changed()
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotationSpeed = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetScale(s float32) {
	g.mu.Lock()
	g.scale = s
	g.dirty = true
	g.mu.Unlock()
	g.changed()
}

func (g *gameObject) SetColor(r, gr, b, a float32) {
	g.mu.Lock()
	g.color = [4]float32{r, gr, b, a}
	g.mu.Unlock()
	g.changed()
}

func (g *gameObject) SetChangeHook(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// changed runs the change hook outside the object's lock.
func (g *gameObject) changed() {
	g.mu.Lock()
	fn := g.onChange
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}
