package frame_resources

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResources(t *testing.T, slots int, options ...FrameResourcesBuilderOption) (FrameResources, *gputest.Device) {
	t.Helper()
	reg, err := model.NewRegistry()
	require.NoError(t, err)
	dev := gputest.NewDevice(gpu.DeviceConfig{FramesInFlight: slots})
	res, err := NewFrameResources(dev, reg, slots, options...)
	require.NoError(t, err)
	return res, dev
}

func instance(tag float32) common.InstanceData {
	var d common.InstanceData
	common.Identity(d.Model[:])
	d.Model[12] = tag
	d.Color = [4]float32{tag, tag, tag, 1}
	return d
}

func TestMeshesUploadedOnce(t *testing.T) {
	res, _ := newTestResources(t, 2)

	vb := res.VertexBuffer().(*gputest.Buffer)
	ib := res.IndexBuffer().(*gputest.Buffer)
	assert.Equal(t, 1, vb.Writes())
	assert.Equal(t, 1, ib.Writes())
	assert.Equal(t, uint64(12*VertexStride), vb.Size())
	assert.Equal(t, uint64(84), ib.Size())
	assert.Equal(t, 2, res.SlotCount())
}

func TestInstanceRegionsArePerSlot(t *testing.T) {
	res, _ := newTestResources(t, 3)

	require.NoError(t, res.WriteInstanceData(1, []common.InstanceData{instance(7)}))

	assert.Zero(t, res.InstanceBuffer(0).(*gputest.Buffer).Writes())
	assert.Equal(t, 1, res.InstanceBuffer(1).(*gputest.Buffer).Writes())
	assert.Zero(t, res.InstanceBuffer(2).(*gputest.Buffer).Writes())
	assert.NotSame(t, res.UniformBuffer(0), res.UniformBuffer(1))
}

func TestWriteInstanceDataKeepsStaleTail(t *testing.T) {
	res, _ := newTestResources(t, 1)

	require.NoError(t, res.WriteInstanceData(0, []common.InstanceData{instance(1), instance(2), instance(3)}))
	require.NoError(t, res.WriteInstanceData(0, []common.InstanceData{instance(9)}))

	data := res.InstanceBuffer(0).(*gputest.Buffer).Bytes()
	third := common.SliceToBytes([]common.InstanceData{instance(3)})
	first := common.SliceToBytes([]common.InstanceData{instance(9)})
	assert.Equal(t, first, data[:InstanceStride])
	assert.Equal(t, third, data[2*InstanceStride:3*InstanceStride])
}

func TestWriteRejectsBadSlotAndOverflow(t *testing.T) {
	res, _ := newTestResources(t, 2, WithInitialCapacity(2))

	assert.Error(t, res.WriteInstanceData(2, nil))
	assert.Error(t, res.WriteUniform(-1, common.FrameUniform{}))
	assert.Error(t, res.WriteInstanceData(0, make([]common.InstanceData, 3)))
}

func TestEnsureCapacityGrowsToPowerOfTwo(t *testing.T) {
	res, _ := newTestResources(t, 2, WithInitialCapacity(3))
	assert.Equal(t, 4, res.Capacity())

	old := res.InstanceBuffer(0).(*gputest.Buffer)
	grew, err := res.EnsureCapacity(4)
	require.NoError(t, err)
	assert.False(t, grew)

	grew, err = res.EnsureCapacity(5)
	require.NoError(t, err)
	assert.True(t, grew)
	assert.Equal(t, 8, res.Capacity())
	assert.True(t, old.Released())
	assert.Equal(t, 8*InstanceStride, res.InstanceBuffer(1).Size())
}

func TestEnsureSlots(t *testing.T) {
	res, _ := newTestResources(t, 2)
	kept := res.InstanceBuffer(0)

	changed, err := res.EnsureSlots(3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 3, res.SlotCount())
	assert.Same(t, kept, res.InstanceBuffer(0))

	dropped := res.InstanceBuffer(2).(*gputest.Buffer)
	changed, err = res.EnsureSlots(1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, dropped.Released())

	changed, err = res.EnsureSlots(1)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestWriteUniform(t *testing.T) {
	res, _ := newTestResources(t, 2)
	var u common.FrameUniform
	common.Identity(u.ProjectionView[:])

	require.NoError(t, res.WriteUniform(1, u))
	assert.Equal(t, common.StructToBytes(&u), res.UniformBuffer(1).(*gputest.Buffer).Bytes())
}

func TestNextPow2(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 64: 64, 65: 128} {
		assert.Equal(t, want, nextPow2(in), "nextPow2(%d)", in)
	}
}

func TestWriteInstanceDataAll(t *testing.T) {
	res, _ := newTestResources(t, 3)
	records := []common.InstanceData{instance(4), instance(5)}

	require.NoError(t, res.WriteInstanceDataAll(records))
	for i := 0; i < res.SlotCount(); i++ {
		buf := res.InstanceBuffer(i).(*gputest.Buffer)
		assert.Equal(t, 1, buf.Writes())
		assert.Equal(t, common.SliceToBytes(records), buf.Bytes()[:2*InstanceStride])
	}
}
