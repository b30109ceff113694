package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_resources"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dev       *gputest.Device
	resources frame_resources.FrameResources
	targets   []gpu.RenderTarget
	pipeline  gpu.PipelineHandle
}

func newFixture(t *testing.T, slots int) fixture {
	t.Helper()
	reg, err := model.NewRegistry()
	require.NoError(t, err)

	dev := gputest.NewDevice(gpu.DeviceConfig{FramesInFlight: slots})
	res, err := frame_resources.NewFrameResources(dev, reg, slots, frame_resources.WithInitialCapacity(8))
	require.NoError(t, err)

	extent := gpu.Extent{Width: 640, Height: 480}
	targets, err := dev.CreateRenderTargets(extent, slots)
	require.NoError(t, err)
	p, err := dev.CreatePipeline(gpu.PipelineDescriptor{Label: "test", Viewport: extent})
	require.NoError(t, err)

	return fixture{dev: dev, resources: res, targets: targets, pipeline: p}
}

func tagged(tag float32) common.InstanceData {
	var d common.InstanceData
	common.Identity(d.Model[:])
	d.Model[12] = tag
	d.Color = [4]float32{tag, 0, 0, 1}
	return d
}

func TestBuildOneSequencePerTarget(t *testing.T) {
	f := newFixture(t, 3)

	seqs, err := Build(f.targets, f.pipeline, f.resources, map[model.Kind]uint32{model.KindCube: 2})
	require.NoError(t, err)
	require.Len(t, seqs, 3)
	for i, s := range seqs {
		assert.Equal(t, i, s.Slot)
		assert.Same(t, f.targets[i], s.Target)
		assert.Equal(t, 1, s.DrawCount())
		assert.Len(t, s.Draws, 2)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	f := newFixture(t, 2)
	counts := map[model.Kind]uint32{model.KindCube: 3, model.KindSquare: 1}

	a, err := Build(f.targets, f.pipeline, f.resources, counts)
	require.NoError(t, err)
	b, err := Build(f.targets, f.pipeline, f.resources, counts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRejectsInconsistentInputs(t *testing.T) {
	f := newFixture(t, 2)

	_, err := Build(append(f.targets, f.targets[0]), f.pipeline, f.resources, nil)
	assert.Error(t, err)

	_, err = Build(f.targets, nil, f.resources, nil)
	assert.Error(t, err)

	_, err = Build(f.targets, f.pipeline, f.resources, map[model.Kind]uint32{model.KindCube: 9})
	assert.Error(t, err)
}

func TestDrawOffsetsAddressWrittenInstances(t *testing.T) {
	f := newFixture(t, 2)
	a, b, c := tagged(1), tagged(2), tagged(3)
	written := []common.InstanceData{a, b, c}
	counts := map[model.Kind]uint32{model.KindCube: 2, model.KindSquare: 1}

	require.NoError(t, f.resources.WriteInstanceData(1, written))
	seqs, err := Build(f.targets, f.pipeline, f.resources, counts)
	require.NoError(t, err)

	sub := NewSubmitter(f.dev, f.resources)
	_, err = sub.Submit(gpu.Ready(), gpu.Acquisition{ImageIndex: 1}, seqs[1])
	require.NoError(t, err)

	got := f.dev.Submissions()
	require.Len(t, got, 1)
	s := got[0]
	require.Len(t, s.Draws, 2)
	assert.Same(t, f.resources.InstanceBuffer(1), s.Vertex[InstanceVertexSlot])
	assert.Same(t, f.resources.UniformBuffer(1), s.Uniform)

	data := s.Vertex[InstanceVertexSlot].Bytes()
	stride := frame_resources.InstanceStride
	var sourced []byte
	prevEnd := uint64(0)
	for _, d := range s.Draws {
		start := uint64(d.FirstInstance) * stride
		end := start + uint64(d.InstanceCount)*stride
		assert.GreaterOrEqual(t, start, prevEnd, "draw ranges overlap")
		sourced = append(sourced, data[start:end]...)
		prevEnd = end
	}
	assert.Equal(t, common.SliceToBytes(written), sourced)

	assert.Equal(t, gputest.Draw{IndexCount: 36, InstanceCount: 2, FirstIndex: 0, BaseVertex: 0, FirstInstance: 0}, s.Draws[0])
	assert.Equal(t, gputest.Draw{IndexCount: 6, InstanceCount: 1, FirstIndex: 36, BaseVertex: 8, FirstInstance: 2}, s.Draws[1])
}

func TestSubmitRejectsMismatchedSlot(t *testing.T) {
	f := newFixture(t, 2)
	seqs, err := Build(f.targets, f.pipeline, f.resources, nil)
	require.NoError(t, err)

	_, err = NewSubmitter(f.dev, f.resources).Submit(nil, gpu.Acquisition{ImageIndex: 0}, seqs[1])
	assert.Error(t, err)
	assert.Empty(t, f.dev.Submissions())
}

func TestSubmitWrapsDeviceErrors(t *testing.T) {
	f := newFixture(t, 1)
	f.dev.SubmitErr = func(int) error { return gpu.ErrDeviceLost }
	seqs, err := Build(f.targets, f.pipeline, f.resources, nil)
	require.NoError(t, err)

	_, err = NewSubmitter(f.dev, f.resources).Submit(nil, gpu.Acquisition{ImageIndex: 0}, seqs[0])
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
}
