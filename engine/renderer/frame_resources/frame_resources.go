package frame_resources

import (
	"fmt"
	"log/slog"
	"math/bits"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/logger"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
)

const (
	// InstanceStride is the size in bytes of one instance record.
	InstanceStride = uint64(unsafe.Sizeof(common.InstanceData{}))

	// UniformSize is the size in bytes of one frame slot's uniform region.
	UniformSize = uint64(unsafe.Sizeof(common.FrameUniform{}))

	// VertexStride is the size in bytes of one mesh vertex.
	VertexStride = uint64(unsafe.Sizeof(common.Vertex{}))

	defaultCapacity = 64
)

type slotBuffers struct {
	instances gpu.Buffer
	uniform   gpu.Buffer
}

// frameResources is the implementation of the FrameResources interface.
type frameResources struct {
	device   gpu.Device
	registry *model.Registry
	log      *slog.Logger

	vertices gpu.Buffer
	indices  gpu.Buffer

	slots    []slotBuffers
	capacity int

	initialCapacity int
}

// FrameResources is the set of GPU buffers the frame pipeline draws from.
//
// The vertex and index tables of every registered mesh are shared and written once. Every frame
// slot owns a private instance region and a private uniform region, so writing slot i can overlap
// the GPU reading slot j. FrameResources does no synchronization of its own: callers must only
// write a slot once that slot's previous submission is known to be complete, and must drain every
// slot before calling EnsureCapacity or EnsureSlots.
type FrameResources interface {
	// SlotCount returns the number of frame slots with allocated regions.
	SlotCount() int

	// Capacity returns the number of instances each slot's instance region can hold.
	Capacity() int

	// EnsureCapacity grows every slot's instance region to hold at least n instances.
	// Regions grow to the next power of two and lose their contents when they grow.
	//
	// Parameters:
	//   - n: the required number of instances per slot
	//
	// Returns:
	//   - bool: true if the regions were reallocated
	//   - error: an error if buffer creation fails
	EnsureCapacity(n int) (bool, error)

	// EnsureSlots allocates or releases per-slot regions so that exactly n slots exist.
	// Existing slots keep their buffers and contents.
	//
	// Parameters:
	//   - n: the required slot count
	//
	// Returns:
	//   - bool: true if the slot count changed
	//   - error: an error if buffer creation fails
	EnsureSlots(n int) (bool, error)

	// WriteInstanceData overwrites the first len(instances) records of the slot's instance region.
	// Records past len(instances) keep whatever they held before.
	//
	// Parameters:
	//   - slot: the frame slot to write
	//   - instances: the records to write, grouped in registry order
	//
	// Returns:
	//   - error: an error if the slot is unknown, the records do not fit, or the write fails
	WriteInstanceData(slot int, instances []common.InstanceData) error

	// WriteInstanceDataAll writes the same records into every slot's instance region.
	// It is only safe once no submission of any slot is outstanding.
	//
	// Parameters:
	//   - instances: the records to write, grouped in registry order
	//
	// Returns:
	//   - error: the first write error
	WriteInstanceDataAll(instances []common.InstanceData) error

	// WriteUniform overwrites the slot's uniform region.
	//
	// Parameters:
	//   - slot: the frame slot to write
	//   - u: the per-frame uniform values
	//
	// Returns:
	//   - error: an error if the slot is unknown or the write fails
	WriteUniform(slot int, u common.FrameUniform) error

	VertexBuffer() gpu.Buffer
	IndexBuffer() gpu.Buffer
	InstanceBuffer(slot int) gpu.Buffer
	UniformBuffer(slot int) gpu.Buffer

	// Registry returns the model registry whose geometry was uploaded.
	Registry() *model.Registry

	// Release frees every buffer.
	Release()
}

var _ FrameResources = &frameResources{}

// NewFrameResources uploads the registry's vertex and index tables and allocates regions for the
// given number of frame slots.
//
// Parameters:
//   - device: the device to create buffers on
//   - registry: the model registry providing geometry and draw order
//   - slots: the initial number of frame slots
//   - options: variadic list of FrameResourcesBuilderOption functions
//
// Returns:
//   - FrameResources: the allocated resource set
//   - error: an error if any buffer could not be created or written
func NewFrameResources(device gpu.Device, registry *model.Registry, slots int, options ...FrameResourcesBuilderOption) (FrameResources, error) {
	f := &frameResources{
		device:          device,
		registry:        registry,
		log:             logger.With("frame_resources"),
		initialCapacity: defaultCapacity,
	}

	for _, opt := range options {
		opt(f)
	}
	f.capacity = nextPow2(f.initialCapacity)

	if err := f.uploadMeshes(); err != nil {
		f.Release()
		return nil, err
	}
	if _, err := f.EnsureSlots(slots); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

func (f *frameResources) uploadMeshes() error {
	vertexData := common.SliceToBytes(f.registry.Vertices())
	indexData := padTo4(common.SliceToBytes(f.registry.Indices()))

	var err error
	f.vertices, err = f.device.CreateBuffer(gpu.BufferDescriptor{
		Label: "Mesh Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: gpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	if err := f.vertices.Write(0, vertexData); err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}

	f.indices, err = f.device.CreateBuffer(gpu.BufferDescriptor{
		Label: "Mesh Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: gpu.BufferUsageIndex,
	})
	if err != nil {
		return fmt.Errorf("create index buffer: %w", err)
	}
	if err := f.indices.Write(0, indexData); err != nil {
		return fmt.Errorf("upload indices: %w", err)
	}

	f.log.Debug("meshes uploaded", "vertices", len(f.registry.Vertices()), "indices", len(f.registry.Indices()))
	return nil
}

func (f *frameResources) createSlot(i int) (slotBuffers, error) {
	instances, err := f.device.CreateBuffer(gpu.BufferDescriptor{
		Label: fmt.Sprintf("Slot %d Instance Buffer", i),
		Size:  uint64(f.capacity) * InstanceStride,
		Usage: gpu.BufferUsageVertex,
	})
	if err != nil {
		return slotBuffers{}, fmt.Errorf("create slot %d instance buffer: %w", i, err)
	}
	uniform, err := f.device.CreateBuffer(gpu.BufferDescriptor{
		Label: fmt.Sprintf("Slot %d Uniform Buffer", i),
		Size:  UniformSize,
		Usage: gpu.BufferUsageUniform,
	})
	if err != nil {
		instances.Release()
		return slotBuffers{}, fmt.Errorf("create slot %d uniform buffer: %w", i, err)
	}
	return slotBuffers{instances: instances, uniform: uniform}, nil
}

func (f *frameResources) SlotCount() int {
	return len(f.slots)
}

func (f *frameResources) Capacity() int {
	return f.capacity
}

func (f *frameResources) EnsureCapacity(n int) (bool, error) {
	if n <= f.capacity {
		return false, nil
	}

	newCapacity := nextPow2(n)
	for i := range f.slots {
		instances, err := f.device.CreateBuffer(gpu.BufferDescriptor{
			Label: fmt.Sprintf("Slot %d Instance Buffer", i),
			Size:  uint64(newCapacity) * InstanceStride,
			Usage: gpu.BufferUsageVertex,
		})
		if err != nil {
			return false, fmt.Errorf("grow slot %d instance buffer: %w", i, err)
		}
		f.slots[i].instances.Release()
		f.slots[i].instances = instances
	}

	f.log.Info("instance capacity grown", "from", f.capacity, "to", newCapacity, "slots", len(f.slots))
	f.capacity = newCapacity
	return true, nil
}

func (f *frameResources) EnsureSlots(n int) (bool, error) {
	if n == len(f.slots) {
		return false, nil
	}

	for len(f.slots) > n {
		last := f.slots[len(f.slots)-1]
		last.instances.Release()
		last.uniform.Release()
		f.slots = f.slots[:len(f.slots)-1]
	}
	for i := len(f.slots); i < n; i++ {
		s, err := f.createSlot(i)
		if err != nil {
			return true, err
		}
		f.slots = append(f.slots, s)
	}
	return true, nil
}

func (f *frameResources) WriteInstanceData(slot int, instances []common.InstanceData) error {
	if slot < 0 || slot >= len(f.slots) {
		return fmt.Errorf("write instances: slot %d out of range [0, %d)", slot, len(f.slots))
	}
	if len(instances) > f.capacity {
		return fmt.Errorf("write instances: %d records exceed capacity %d", len(instances), f.capacity)
	}
	if len(instances) == 0 {
		return nil
	}
	return f.slots[slot].instances.Write(0, common.SliceToBytes(instances))
}

func (f *frameResources) WriteInstanceDataAll(instances []common.InstanceData) error {
	for i := range f.slots {
		if err := f.WriteInstanceData(i, instances); err != nil {
			return err
		}
	}
	return nil
}

func (f *frameResources) WriteUniform(slot int, u common.FrameUniform) error {
	if slot < 0 || slot >= len(f.slots) {
		return fmt.Errorf("write uniform: slot %d out of range [0, %d)", slot, len(f.slots))
	}
	return f.slots[slot].uniform.Write(0, common.StructToBytes(&u))
}

func (f *frameResources) VertexBuffer() gpu.Buffer {
	return f.vertices
}

func (f *frameResources) IndexBuffer() gpu.Buffer {
	return f.indices
}

func (f *frameResources) InstanceBuffer(slot int) gpu.Buffer {
	return f.slots[slot].instances
}

func (f *frameResources) UniformBuffer(slot int) gpu.Buffer {
	return f.slots[slot].uniform
}

func (f *frameResources) Registry() *model.Registry {
	return f.registry
}

func (f *frameResources) Release() {
	for _, s := range f.slots {
		s.instances.Release()
		s.uniform.Release()
	}
	f.slots = nil
	if f.vertices != nil {
		f.vertices.Release()
		f.vertices = nil
	}
	if f.indices != nil {
		f.indices.Release()
		f.indices = nil
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// padTo4 pads b with zeros to a multiple of four bytes, the copy alignment WebGPU requires.
func padTo4(b []byte) []byte {
	if rem := len(b) % 4; rem != 0 {
		b = append(b, make([]byte, 4-rem)...)
	}
	return b
}
