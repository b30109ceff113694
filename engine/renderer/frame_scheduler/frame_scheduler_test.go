package frame_scheduler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_resources"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScene struct {
	objects map[model.Kind][]common.InstanceData
	changed bool
}

func newTestScene(cubes, squares int) *testScene {
	s := &testScene{objects: make(map[model.Kind][]common.InstanceData)}
	for i := range cubes {
		s.objects[model.KindCube] = append(s.objects[model.KindCube], record(float32(i+1)))
	}
	for i := range squares {
		s.objects[model.KindSquare] = append(s.objects[model.KindSquare], record(float32(100+i)))
	}
	return s
}

func (s *testScene) Changed() bool { return s.changed }
func (s *testScene) ClearChanged() { s.changed = false }

func (s *testScene) AppendInstances(kind model.Kind, dst []common.InstanceData) []common.InstanceData {
	return append(dst, s.objects[kind]...)
}

type testCamera struct{}

func (testCamera) ProjectionView() [16]float32 {
	var m [16]float32
	common.Identity(m[:])
	return m
}

func record(tag float32) common.InstanceData {
	var d common.InstanceData
	common.Identity(d.Model[:])
	d.Model[12] = tag
	d.Color = [4]float32{tag, 0, 0, 1}
	return d
}

type harness struct {
	t     *testing.T
	dev   *gputest.Device
	surf  *gputest.Surface
	sched FrameScheduler
	scene *testScene
}

func newHarness(t *testing.T, images int, scene *testScene, options ...FrameSchedulerBuilderOption) *harness {
	t.Helper()
	dev := gputest.NewDevice(gpu.DeviceConfig{FramesInFlight: images})
	surf := gputest.NewSurface(gpu.Extent{Width: 800, Height: 600}, images)
	sched, err := NewFrameScheduler(dev, surf, options...)
	require.NoError(t, err)
	return &harness{t: t, dev: dev, surf: surf, sched: sched, scene: scene}
}

func (h *harness) tick(n int) {
	h.t.Helper()
	for range n {
		require.NoError(h.t, h.sched.Update(testCamera{}, h.scene))
	}
}

func images(subs []gputest.Submission) []int {
	out := make([]int, len(subs))
	for i, s := range subs {
		out[i] = s.Image
	}
	return out
}

func TestScenarioSteadySceneWritesOnce(t *testing.T) {
	h := newHarness(t, 2, newTestScene(1, 0))

	h.tick(5)

	stats := h.sched.Stats()
	assert.Equal(t, 1, stats.InstanceWrites)
	assert.Equal(t, 5, stats.Submitted)
	assert.Zero(t, stats.Skipped)

	subs := h.dev.Submissions()
	require.Len(t, subs, 5)
	assert.Equal(t, []int{0, 1, 0, 1, 0}, images(subs))
	assert.True(t, gpu.IsReady(subs[0].After))
	for i := 1; i < len(subs); i++ {
		assert.Same(t, subs[i-1].Fence, subs[i].After, "submission %d joins the previous fence", i)
	}
}

func TestScenarioOutOfDateAcquireRecreates(t *testing.T) {
	h := newHarness(t, 2, newTestScene(2, 1))
	h.surf.AcquireErr = func(attempt int) error {
		if attempt == 3 {
			return fmt.Errorf("surface lost: %w", gpu.ErrOutOfDate)
		}
		return nil
	}

	h.tick(3)
	assert.Len(t, h.dev.Submissions(), 2)
	assert.Equal(t, 1, h.sched.Stats().Skipped)
	assert.Equal(t, 1, h.dev.TargetGenerations())

	h.tick(1)
	subs := h.dev.Submissions()
	require.Len(t, subs, 3)
	assert.Equal(t, 1, subs[2].Target.Generation)
	assert.Equal(t, 2, h.dev.TargetGenerations())
	assert.Equal(t, 2, h.sched.Stats().Recreations)
	assert.Equal(t, 2, h.sched.Stats().Rebuilds)
	assert.True(t, subs[0].Fence.Waited())
	assert.True(t, subs[1].Fence.Waited())
}

func TestScenarioSceneChangeCatchesUpEachSlot(t *testing.T) {
	scene := newTestScene(1, 0)
	h := newHarness(t, 2, scene)

	writes := func() int { return h.sched.Stats().InstanceWrites }

	h.tick(3)
	assert.Equal(t, 1, writes())

	scene.objects[model.KindCube][0] = record(42)
	scene.changed = true

	h.tick(1)
	assert.Equal(t, 2, writes())
	assert.False(t, scene.changed)

	h.tick(1)
	assert.Equal(t, 3, writes())

	h.tick(1)
	assert.Equal(t, 3, writes())

	want := common.SliceToBytes([]common.InstanceData{record(42)})
	for _, s := range h.dev.Submissions()[3:] {
		assert.Equal(t, want, s.Vertex[1].Bytes()[:frame_resources.InstanceStride], "slot %d", s.Image)
	}
}

func TestAtMostSlotCountFramesInFlight(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("slots=%d", n), func(t *testing.T) {
			h := newHarness(t, n, newTestScene(3, 2))
			for range 12 {
				h.tick(1)
				assert.LessOrEqual(t, h.dev.Outstanding(), n)
			}
			assert.Equal(t, n, h.sched.SlotCount())
			assert.LessOrEqual(t, h.dev.MaxOutstanding(), n)
			assert.Equal(t, 12, h.sched.Stats().Submitted)
		})
	}
}

func TestSlotFenceWaitedBeforeReuse(t *testing.T) {
	h := newHarness(t, 3, newTestScene(1, 0))

	h.tick(3)
	first := h.dev.Submissions()[0].Fence
	assert.False(t, first.Waited())

	h.tick(1)
	assert.True(t, first.Waited())
	assert.Equal(t, 0, h.dev.Submissions()[3].Image)
}

func TestUpdateWithoutChangesDoesNotRebuild(t *testing.T) {
	h := newHarness(t, 2, newTestScene(2, 2))

	h.tick(2)
	before := h.sched.Stats()
	generations := h.dev.TargetGenerations()
	pipelines := len(h.dev.Pipelines())

	h.tick(5)
	after := h.sched.Stats()
	assert.Equal(t, before.Rebuilds, after.Rebuilds)
	assert.Equal(t, before.Recreations, after.Recreations)
	assert.Equal(t, generations, h.dev.TargetGenerations())
	assert.Equal(t, pipelines, len(h.dev.Pipelines()))
	assert.Equal(t, 1, after.Rebuilds)
}

func TestResizeRebuildsAndHonorsPendingFence(t *testing.T) {
	h := newHarness(t, 3, newTestScene(2, 0))

	h.tick(2)
	pending := h.dev.Submissions()[1].Fence
	require.False(t, pending.Waited())

	size := gpu.Extent{Width: 1024, Height: 768}
	h.surf.Resize(size)
	h.sched.NotifyResize()
	h.tick(1)

	assert.True(t, pending.Waited())
	assert.Equal(t, size, h.sched.Extent())
	assert.Equal(t, 2, h.sched.Stats().Rebuilds)
	assert.Equal(t, 1, h.dev.Outstanding())

	last := h.dev.Submissions()[2]
	assert.Equal(t, size, last.Target.Extent())
	assert.Equal(t, size, last.Pipeline.Viewport())
	assert.Equal(t, []gpu.Extent{{Width: 800, Height: 600}, size}, h.surf.Configured())

	pipelines := h.dev.Pipelines()
	assert.True(t, pipelines[0].Released)
}

func TestResizeToZeroKeepsCurrentGeneration(t *testing.T) {
	h := newHarness(t, 2, newTestScene(1, 0))
	h.tick(1)

	h.surf.Resize(gpu.Extent{})
	h.sched.NotifyResize()
	h.tick(1)

	assert.Equal(t, 1, h.sched.Stats().Recreations)
	assert.Equal(t, 2, h.sched.Stats().Submitted)
	assert.Equal(t, gpu.Extent{Width: 800, Height: 600}, h.sched.Extent())
}

func TestStartMinimizedRecoversWhenSurfaceGrows(t *testing.T) {
	dev := gputest.NewDevice(gpu.DeviceConfig{FramesInFlight: 2})
	surf := gputest.NewSurface(gpu.Extent{}, 2)
	sched, err := NewFrameScheduler(dev, surf)
	require.NoError(t, err)
	scene := newTestScene(1, 0)

	require.NoError(t, sched.Update(testCamera{}, scene))
	assert.Equal(t, 1, sched.Stats().Skipped)
	assert.Empty(t, dev.Submissions())

	surf.Resize(gpu.Extent{Width: 640, Height: 480})
	require.NoError(t, sched.Update(testCamera{}, scene))
	assert.Len(t, dev.Submissions(), 1)
	assert.Equal(t, 1, sched.Stats().Recreations)
}

func TestSuboptimalSubmitsThenRecreates(t *testing.T) {
	h := newHarness(t, 2, newTestScene(1, 0))
	h.surf.Suboptimal = func(attempt int) bool { return attempt == 2 }

	h.tick(2)
	assert.Equal(t, 2, h.sched.Stats().Submitted)
	assert.Equal(t, 1, h.sched.Stats().Recreations)

	h.tick(1)
	assert.Equal(t, 2, h.sched.Stats().Recreations)
	assert.Equal(t, 3, h.sched.Stats().Submitted)
}

func TestTransientSubmitFailureLeavesSlotIdle(t *testing.T) {
	h := newHarness(t, 2, newTestScene(1, 0))
	h.dev.SubmitErr = func(attempt int) error {
		if attempt == 2 {
			return errors.New("queue rejected submission")
		}
		return nil
	}

	h.tick(4)
	stats := h.sched.Stats()
	assert.Equal(t, 3, stats.Submitted)
	assert.Equal(t, 1, stats.Skipped)

	subs := h.dev.Submissions()
	require.Len(t, subs, 3)
	assert.Equal(t, []int{0, 0, 1}, images(subs))
	assert.True(t, gpu.IsReady(subs[1].After))
}

func TestSubmitOutOfDateRecreatesNextTick(t *testing.T) {
	h := newHarness(t, 2, newTestScene(1, 0))
	h.dev.SubmitErr = func(attempt int) error {
		if attempt == 2 {
			return gpu.ErrOutOfDate
		}
		return nil
	}

	h.tick(2)
	assert.Equal(t, 1, h.sched.Stats().Recreations)
	h.tick(1)
	assert.Equal(t, 2, h.sched.Stats().Recreations)
	assert.Equal(t, 2, h.sched.Stats().Submitted)
}

func TestFatalErrorsPropagate(t *testing.T) {
	t.Run("device lost on submit", func(t *testing.T) {
		h := newHarness(t, 2, newTestScene(1, 0))
		h.dev.SubmitErr = func(int) error { return fmt.Errorf("driver reset: %w", gpu.ErrDeviceLost) }

		err := h.sched.Update(testCamera{}, h.scene)
		assert.ErrorIs(t, err, gpu.ErrDeviceLost)
	})

	t.Run("acquire failure", func(t *testing.T) {
		h := newHarness(t, 2, newTestScene(1, 0))
		h.surf.AcquireErr = func(int) error { return errors.New("surface destroyed") }

		assert.Error(t, h.sched.Update(testCamera{}, h.scene))
	})

	t.Run("fence wait failure", func(t *testing.T) {
		h := newHarness(t, 1, newTestScene(1, 0))
		h.tick(1)
		h.dev.Submissions()[0].Fence.Err = gpu.ErrDeviceLost

		err := h.sched.Update(testCamera{}, h.scene)
		assert.ErrorIs(t, err, gpu.ErrDeviceLost)
	})
}

func TestDrawsFollowRegistryOrder(t *testing.T) {
	h := newHarness(t, 2, newTestScene(2, 1))
	h.tick(1)

	s := h.dev.Submissions()[0]
	require.Len(t, s.Draws, 2)
	assert.Equal(t, gputest.Draw{IndexCount: 36, InstanceCount: 2, FirstIndex: 0, BaseVertex: 0, FirstInstance: 0}, s.Draws[0])
	assert.Equal(t, gputest.Draw{IndexCount: 6, InstanceCount: 1, FirstIndex: 36, BaseVertex: 8, FirstInstance: 2}, s.Draws[1])

	data := s.Vertex[1].Bytes()
	stride := frame_resources.InstanceStride
	assert.Equal(t, common.SliceToBytes([]common.InstanceData{record(100)}), data[2*stride:3*stride])
}

func TestGrowthRewritesEverySlot(t *testing.T) {
	scene := newTestScene(1, 0)
	h := newHarness(t, 2, scene, WithInitialCapacity(2))
	h.tick(2)

	for i := range 4 {
		scene.objects[model.KindCube] = append(scene.objects[model.KindCube], record(float32(10+i)))
	}
	scene.changed = true
	h.tick(2)

	stats := h.sched.Stats()
	assert.Equal(t, 2, stats.InstanceWrites)
	assert.Equal(t, 2, stats.Rebuilds)
	last := h.dev.Submissions()[3]
	assert.Equal(t, uint32(5), last.Draws[0].InstanceCount)
	assert.Equal(t, 8*frame_resources.InstanceStride, last.Vertex[1].Size())
}

func TestSceneCountChangeRebuildsOnce(t *testing.T) {
	scene := newTestScene(1, 0)
	h := newHarness(t, 2, scene)
	h.tick(2)

	scene.objects[model.KindSquare] = []common.InstanceData{record(7)}
	scene.changed = true
	h.tick(3)

	assert.Equal(t, 2, h.sched.Stats().Rebuilds)
	last := h.dev.Submissions()[4]
	require.Len(t, last.Draws, 2)
	assert.Equal(t, uint32(1), last.Draws[1].FirstInstance)
}

func TestReleaseDrainsEverything(t *testing.T) {
	h := newHarness(t, 3, newTestScene(1, 1))
	h.tick(5)
	require.Positive(t, h.dev.Outstanding())

	require.NoError(t, h.sched.Release())
	assert.Zero(t, h.dev.Outstanding())
	for _, b := range h.dev.Buffers() {
		assert.True(t, b.Released(), b.Label)
	}
}
