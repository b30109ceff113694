package scene

import (
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/chewxy/math32"
)

// GridCubeScale is the scale of every cube produced by GenerateCubeGrid.
const GridCubeScale = 0.15

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name string

	registry map[uint64]game_object.GameObject
	byKind   map[model.Kind][]game_object.GameObject
	nextID   uint64

	changed atomic.Bool

	// computePool fills instance records in parallel for kinds with at least
	// parallelThreshold objects. Workers idle-exit between uses.
	computePool       worker.DynamicWorkerPool
	computeWorkers    int
	parallelThreshold int
	taskID            atomic.Int64
}

// Scene defines the interface for the set of drawable objects.
//
// Objects are grouped by model kind and kept in insertion order within a kind, so the instance
// records appended for a kind always come out in the same order. Any mutation of the scene or of
// one of its objects sets the changed flag, which the renderer clears after it has gathered the
// new instance data.
type Scene interface {
	// Name returns the scene's name.
	Name() string

	// Add inserts objects into the scene. Objects without IDs are assigned new ones.
	// Adding an object whose ID is already present replaces the old object.
	//
	// Parameters:
	//   - objects: the objects to add
	Add(objects ...game_object.GameObject)

	// Remove deletes the object with the given ID.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - bool: true if the object was present
	Remove(id uint64) bool

	// Object returns the object with the given ID, or nil.
	Object(id uint64) game_object.GameObject

	// ObjectCount returns the number of objects in the scene, enabled or not.
	ObjectCount() int

	// InstanceCount returns the number of enabled objects of the given kind.
	//
	// Parameters:
	//   - kind: the model kind
	//
	// Returns:
	//   - int: the number of instances AppendInstances will produce for kind
	InstanceCount(kind model.Kind) int

	// AppendInstances appends one record per enabled object of the given kind to dst, in
	// insertion order.
	//
	// Parameters:
	//   - kind: the model kind
	//   - dst: the slice to append to
	//
	// Returns:
	//   - []common.InstanceData: the extended slice
	AppendInstances(kind model.Kind, dst []common.InstanceData) []common.InstanceData

	// Advance applies every object's rotation speed over dt.
	//
	// Parameters:
	//   - dt: elapsed time since the previous call
	Advance(dt time.Duration)

	// Changed reports whether the scene changed since ClearChanged was last called.
	Changed() bool

	// ClearChanged resets the changed flag.
	ClearChanged()
}

var _ Scene = &scene{}

// NewScene creates a new, initially changed Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:                &sync.RWMutex{},
		name:              name,
		registry:          make(map[uint64]game_object.GameObject),
		byKind:            make(map[model.Kind][]game_object.GameObject),
		nextID:            1,
		computeWorkers:    max(runtime.NumCPU()-1, 1),
		parallelThreshold: 4096,
	}
	s.changed.Store(true)

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Add(objects ...game_object.GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range objects {
		s.add(obj)
	}
	s.changed.Store(true)
}

// add inserts obj. Caller must hold the write lock.
func (s *scene) add(obj game_object.GameObject) {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	if old, ok := s.registry[obj.ID()]; ok {
		s.detach(old)
	}
	s.registry[obj.ID()] = obj
	s.byKind[obj.Kind()] = append(s.byKind[obj.Kind()], obj)
	obj.SetChangeHook(s.markChanged)
}

// detach removes obj from its kind list. Caller must hold the write lock.
func (s *scene) detach(obj game_object.GameObject) {
	obj.SetChangeHook(nil)
	delete(s.registry, obj.ID())
	list := s.byKind[obj.Kind()]
	if i := slices.Index(list, obj); i >= 0 {
		s.byKind[obj.Kind()] = slices.Delete(list, i, i+1)
	}
}

func (s *scene) Remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.registry[id]
	if !ok {
		return false
	}
	s.detach(obj)
	s.changed.Store(true)
	return true
}

func (s *scene) Object(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) ObjectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) InstanceCount(kind model.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, obj := range s.byKind[kind] {
		if obj.Enabled() {
			n++
		}
	}
	return n
}

func (s *scene) AppendInstances(kind model.Kind, dst []common.InstanceData) []common.InstanceData {
	s.mu.RLock()
	objects := make([]game_object.GameObject, 0, len(s.byKind[kind]))
	for _, obj := range s.byKind[kind] {
		if obj.Enabled() {
			objects = append(objects, obj)
		}
	}
	s.mu.RUnlock()

	start := len(dst)
	dst = slices.Grow(dst, len(objects))[:start+len(objects)]
	out := dst[start:]

	if len(objects) < s.parallelThreshold || s.computeWorkers < 2 {
		for i, obj := range objects {
			out[i] = obj.InstanceData()
		}
		return dst
	}

	// Each task fills a disjoint chunk of out. A WaitGroup is the barrier, since the pool's
	// own Wait blocks until the workers idle-exit.
	chunk := (len(objects) + s.computeWorkers - 1) / s.computeWorkers
	var wg sync.WaitGroup
	for lo := 0; lo < len(objects); lo += chunk {
		hi := min(lo+chunk, len(objects))
		wg.Add(1)
		s.computePool.SubmitTask(worker.Task{
			ID: int(s.taskID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					out[i] = objects[i].InstanceData()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return dst
}

func (s *scene) Advance(dt time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.byKind {
		for _, obj := range list {
			obj.Advance(dt)
		}
	}
}

func (s *scene) Changed() bool {
	return s.changed.Load()
}

func (s *scene) ClearChanged() {
	s.changed.Store(false)
}

func (s *scene) markChanged() {
	s.changed.Store(true)
}

// GenerateCubeGrid creates n*n*n small cubes, one per unit cell of the grid, each jittered
// within its cell with a random rotation and color. The same seed yields the same grid.
//
// Parameters:
//   - n: the grid edge length
//   - seed: the random seed
//
// Returns:
//   - []game_object.GameObject: the cubes in i, j, k order
func GenerateCubeGrid(n int, seed int64) []game_object.GameObject {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0x6f78792d6672616d))
	angle := func() float32 {
		return (rng.Float32()*2 - 1) * math32.Pi
	}

	cubes := make([]game_object.GameObject, 0, n*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				pos := [3]float32{
					float32(i) - 0.5 + rng.Float32(),
					float32(j) - 0.5 + rng.Float32(),
					float32(k) - 0.5 + rng.Float32(),
				}
				color := [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
				cubes = append(cubes, game_object.NewCube(pos, color,
					game_object.WithRotation(angle(), angle(), angle()),
					game_object.WithScale(GridCubeScale),
				))
			}
		}
	}
	return cubes
}

// DefaultObjects returns the small hand-placed scene used when no grid is generated: two cubes
// and a red square at the origin.
func DefaultObjects() []game_object.GameObject {
	return []game_object.GameObject{
		game_object.NewCube([3]float32{5, 1, 0}, [3]float32{0.2, 0.6, 1}, game_object.WithRotationSpeed(0, 0.5, 0)),
		game_object.NewCube([3]float32{2, 0, 0}, [3]float32{1, 0.8, 0.2}, game_object.WithRotationSpeed(0.3, 0, 0.3)),
		game_object.NewSquare([3]float32{0, 0, 0}, [3]float32{1, 0, 0}),
	}
}
