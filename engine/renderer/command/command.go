package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_resources"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
)

// Vertex buffer slots used by the recorded draws.
const (
	MeshVertexSlot     uint32 = 0
	InstanceVertexSlot uint32 = 1
)

// submitter is the implementation of the Submitter interface.
type submitter struct {
	device    gpu.Device
	resources frame_resources.FrameResources
}

// Submitter builds the per-slot command sequences and submits them.
type Submitter interface {
	// Build records one Sequence per render target. See the package-level Build.
	//
	// Parameters:
	//   - targets: the render targets of the current swapchain generation, by image index
	//   - pipeline: the pipeline whose viewport matches the targets
	//   - counts: the instance count of every registered kind
	//
	// Returns:
	//   - []*Sequence: one sequence per target
	//   - error: an error if the inputs are inconsistent
	Build(targets []gpu.RenderTarget, pipeline gpu.PipelineHandle, counts map[model.Kind]uint32) ([]*Sequence, error)

	// Submit queues seq for the acquired image after the work behind after.
	//
	// Parameters:
	//   - after: the upstream dependency of the submission
	//   - acquired: the acquired image; its index must equal seq.Slot
	//   - seq: the sequence of the acquired image's slot
	//
	// Returns:
	//   - gpu.Fence: the fence of the submission
	//   - error: the device's submission error, wrapped
	Submit(after gpu.Fence, acquired gpu.Acquisition, seq *Sequence) (gpu.Fence, error)
}

var _ Submitter = &submitter{}

// NewSubmitter creates a Submitter recording against the given resources.
//
// Parameters:
//   - device: the device sequences are submitted to
//   - resources: the frame resource set every sequence reads from
//
// Returns:
//   - Submitter: the submitter
func NewSubmitter(device gpu.Device, resources frame_resources.FrameResources) Submitter {
	return &submitter{
		device:    device,
		resources: resources,
	}
}

func (s *submitter) Build(targets []gpu.RenderTarget, pipeline gpu.PipelineHandle, counts map[model.Kind]uint32) ([]*Sequence, error) {
	return Build(targets, pipeline, s.resources, counts)
}

func (s *submitter) Submit(after gpu.Fence, acquired gpu.Acquisition, seq *Sequence) (gpu.Fence, error) {
	if seq == nil || seq.Slot != acquired.ImageIndex {
		return nil, fmt.Errorf("submit: no sequence for image %d", acquired.ImageIndex)
	}
	if after == nil {
		after = gpu.Ready()
	}
	f, err := s.device.Submit(after, acquired, seq)
	if err != nil {
		return nil, fmt.Errorf("submit slot %d: %w", seq.Slot, err)
	}
	return f, nil
}

// Build records one command sequence per render target. It reads nothing but its arguments.
//
// Each sequence clears its target, binds the pipeline, the slot's uniform region, the shared mesh
// tables and the slot's instance region, then issues one indexed-instanced draw per registered
// kind with a non-zero count. Offsets come from the registry's Layout, which is the same ordering
// instance records are packed in.
//
// Parameters:
//   - targets: the render targets, by image index
//   - pipeline: the pipeline to bind
//   - resources: the frame resource set with at least len(targets) slots
//   - counts: the instance count of every registered kind
//
// Returns:
//   - []*Sequence: one sequence per target
//   - error: an error if there are more targets than slots or the counts exceed slot capacity
func Build(targets []gpu.RenderTarget, pipeline gpu.PipelineHandle, resources frame_resources.FrameResources, counts map[model.Kind]uint32) ([]*Sequence, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("build: nil pipeline")
	}
	if len(targets) > resources.SlotCount() {
		return nil, fmt.Errorf("build: %d targets but only %d frame slots", len(targets), resources.SlotCount())
	}

	registry := resources.Registry()
	if total := registry.TotalInstances(counts); int(total) > resources.Capacity() {
		return nil, fmt.Errorf("build: %d instances exceed slot capacity %d", total, resources.Capacity())
	}
	draws := registry.Layout(counts)

	sequences := make([]*Sequence, len(targets))
	for i, target := range targets {
		seq := &Sequence{Slot: i, Target: target, Draws: draws}
		seq.ops = append(seq.ops,
			op{kind: opBeginPass, target: target},
			op{kind: opSetPipeline, pipeline: pipeline},
			op{kind: opSetUniform, buffer: resources.UniformBuffer(i)},
			op{kind: opSetVertex, slot: MeshVertexSlot, buffer: resources.VertexBuffer()},
			op{kind: opSetVertex, slot: InstanceVertexSlot, buffer: resources.InstanceBuffer(i)},
			op{kind: opSetIndex, buffer: resources.IndexBuffer()},
		)
		for _, d := range draws {
			if d.InstanceCount == 0 {
				continue
			}
			seq.ops = append(seq.ops, op{kind: opDraw, draw: d})
		}
		seq.ops = append(seq.ops, op{kind: opEndPass})
		sequences[i] = seq
	}
	return sequences, nil
}
