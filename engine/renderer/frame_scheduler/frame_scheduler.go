package frame_scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/logger"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/frame_resources"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/swapchain"
)

// Camera supplies the projection-view transform written to each frame's uniform region.
type Camera interface {
	ProjectionView() [16]float32
}

// Scene supplies per-object instance records grouped by model kind.
type Scene interface {
	// Changed reports whether the scene changed since ClearChanged was last called.
	Changed() bool

	// ClearChanged resets the changed flag.
	ClearChanged()

	// AppendInstances appends the records of every object of the given kind to dst, in a stable order.
	AppendInstances(kind model.Kind, dst []common.InstanceData) []common.InstanceData
}

// Stats counts what the scheduler has done since it was created.
type Stats struct {
	// Submitted is the number of frames whose submission produced a fence.
	Submitted int

	// Skipped is the number of updates that acquired no image or whose submission failed.
	Skipped int

	// Rebuilds is the number of times the per-slot command sequences were recorded.
	Rebuilds int

	// Recreations is the number of swapchain generations created, including the first.
	Recreations int

	// InstanceWrites is the number of instance data writes, per slot or to every slot at once.
	InstanceWrites int
}

type frameSlot struct {
	// fence is the pending fence of the slot's last submission; nil when idle.
	fence gpu.Fence

	// stale is set while the slot's instance region lags the scene.
	stale bool
}

// frameScheduler is the implementation of the FrameScheduler interface.
type frameScheduler struct {
	device    gpu.Device
	surface   gpu.Surface
	swapchain swapchain.Swapchain
	resources frame_resources.FrameResources
	submitter command.Submitter
	pipeline  pipeline.Pipeline
	registry  *model.Registry
	log       *slog.Logger

	handle    gpu.PipelineHandle
	sequences []*command.Sequence
	slots     []frameSlot
	previous  int

	resize     atomic.Bool
	needsBuild bool

	instances   []common.InstanceData
	counts      map[model.Kind]uint32
	builtCounts map[model.Kind]uint32
	populated   bool

	initialCapacity int
	stats           Stats
}

// FrameScheduler drives frames through acquisition, fencing, resource writes and submission.
//
// Every presentable image is a frame slot with its own fence, instance region, uniform region and
// command sequence, so at most one frame per slot is ever in flight. Before a slot's regions are
// written its own fence is waited. Mutations shared by every slot (recording the command sequences,
// growing instance regions, recreating the swapchain) first wait every pending fence.
//
// Update is not safe for concurrent use. NotifyResize may be called from any goroutine.
type FrameScheduler interface {
	// Update drives one frame: pending recreation and rebuilds, acquisition, the slot fence wait,
	// instance and uniform writes, and submission. Stale presentation and transient submission
	// failures are absorbed into state and retried on the next call.
	//
	// Parameters:
	//   - camera: supplies the projection-view transform for this frame
	//   - scene: supplies instance records when it has changed
	//
	// Returns:
	//   - error: a fatal device error; the scheduler must not be used afterwards
	Update(camera Camera, scene Scene) error

	// NotifyResize requests swapchain recreation at the surface's current size on the next Update.
	NotifyResize()

	// Stats returns the scheduler's counters.
	Stats() Stats

	// SlotCount returns the number of frame slots.
	SlotCount() int

	// Extent returns the size of the current swapchain generation.
	Extent() gpu.Extent

	// Release waits for every pending frame and frees all GPU resources.
	//
	// Returns:
	//   - error: the first fence wait error
	Release() error
}

var _ FrameScheduler = &frameScheduler{}

// NewFrameScheduler creates the swapchain at the surface's current size, uploads mesh geometry and
// allocates one set of frame resources per presentable image. A surface that cannot be configured
// yet, such as a minimized window, is retried on the first Update.
//
// Parameters:
//   - device: the device to create resources on and submit to
//   - surface: the window surface to present to
//   - options: variadic list of FrameSchedulerBuilderOption functions
//
// Returns:
//   - FrameScheduler: the scheduler
//   - error: a fatal error creating the swapchain or frame resources
func NewFrameScheduler(device gpu.Device, surface gpu.Surface, options ...FrameSchedulerBuilderOption) (FrameScheduler, error) {
	s := &frameScheduler{
		device:      device,
		surface:     surface,
		log:         logger.With("frame_scheduler"),
		previous:    -1,
		needsBuild:  true,
		counts:      make(map[model.Kind]uint32),
		builtCounts: make(map[model.Kind]uint32),
	}

	for _, opt := range options {
		opt(s)
	}

	if s.registry == nil {
		reg, err := model.NewRegistry()
		if err != nil {
			return nil, err
		}
		s.registry = reg
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.NewPipeline("instanced")
	}

	s.swapchain = swapchain.NewSwapchain(device, surface)
	created, err := s.swapchain.Recreate(surface.Size())
	if err != nil {
		return nil, fmt.Errorf("create swapchain: %w", err)
	}

	slots := device.Config().Frames()
	if created {
		s.stats.Recreations++
		slots = s.swapchain.ImageCount()
	} else {
		s.resize.Store(true)
	}

	var resourceOpts []frame_resources.FrameResourcesBuilderOption
	if s.initialCapacity > 0 {
		resourceOpts = append(resourceOpts, frame_resources.WithInitialCapacity(s.initialCapacity))
	}
	s.resources, err = frame_resources.NewFrameResources(device, s.registry, slots, resourceOpts...)
	if err != nil {
		s.swapchain.Release()
		return nil, fmt.Errorf("create frame resources: %w", err)
	}
	s.slots = make([]frameSlot, slots)
	s.submitter = command.NewSubmitter(device, s.resources)

	cfg := device.Config()
	s.log.Info("frame scheduler ready",
		"adapter", cfg.AdapterName,
		"backend", cfg.Backend,
		"slots", slots,
		"present_mode", cfg.PresentMode.String(),
	)
	return s, nil
}

func (s *frameScheduler) NotifyResize() {
	s.resize.Store(true)
}

func (s *frameScheduler) Stats() Stats {
	return s.stats
}

func (s *frameScheduler) SlotCount() int {
	return len(s.slots)
}

func (s *frameScheduler) Extent() gpu.Extent {
	return s.swapchain.Extent()
}

func (s *frameScheduler) Update(camera Camera, scene Scene) error {
	if !s.populated || scene.Changed() {
		if err := s.gather(scene); err != nil {
			return err
		}
	}

	if s.resize.Swap(false) {
		if err := s.recreate(); err != nil {
			return err
		}
	}

	if s.swapchain.Generation() > 0 && (s.needsBuild || !maps.Equal(s.counts, s.builtCounts)) {
		if err := s.rebuild(); err != nil {
			return err
		}
	}

	acquired, err := s.swapchain.Acquire()
	if errors.Is(err, gpu.ErrOutOfDate) {
		s.log.Debug("acquire out of date", "error", err)
		s.resize.Store(true)
		s.stats.Skipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	if acquired.Suboptimal {
		s.resize.Store(true)
	}

	i := acquired.ImageIndex
	if err := s.waitSlot(i); err != nil {
		return err
	}

	if s.slots[i].stale {
		if err := s.resources.WriteInstanceData(i, s.instances); err != nil {
			return fmt.Errorf("write slot %d instances: %w", i, err)
		}
		s.slots[i].stale = false
		s.stats.InstanceWrites++
	}
	if err := s.resources.WriteUniform(i, common.FrameUniform{ProjectionView: camera.ProjectionView()}); err != nil {
		return fmt.Errorf("write slot %d uniform: %w", i, err)
	}

	after := gpu.Ready()
	if s.previous >= 0 && s.previous < len(s.slots) && s.slots[s.previous].fence != nil {
		after = s.slots[s.previous].fence
	}

	fence, err := s.submitter.Submit(after, acquired, s.sequences[i])
	switch {
	case err == nil:
		s.slots[i].fence = fence
		s.stats.Submitted++
	case errors.Is(err, gpu.ErrOutOfDate):
		s.resize.Store(true)
		s.stats.Skipped++
	case errors.Is(err, gpu.ErrDeviceLost):
		return err
	default:
		s.log.Warn("frame submission failed", "slot", i, "error", err)
		s.stats.Skipped++
	}

	s.previous = i
	return nil
}

// gather refreshes the CPU copy of the scene's instance records in registry order and decides how
// the slots catch up: a first population or a capacity growth writes every slot at once after a
// full drain, any other change marks every slot stale.
func (s *frameScheduler) gather(scene Scene) error {
	// Cleared first so a change made while gathering is seen by the next update.
	scene.ClearChanged()
	s.instances = s.instances[:0]
	for _, k := range s.registry.Kinds() {
		before := len(s.instances)
		s.instances = scene.AppendInstances(k, s.instances)
		s.counts[k] = uint32(len(s.instances) - before)
	}

	broadcast := !s.populated
	if len(s.instances) > s.resources.Capacity() {
		if err := s.drainAll(); err != nil {
			return err
		}
		if _, err := s.resources.EnsureCapacity(len(s.instances)); err != nil {
			return fmt.Errorf("grow instance regions: %w", err)
		}
		s.needsBuild = true
		broadcast = true
	}
	s.populated = true

	if broadcast {
		return s.writeAll()
	}
	for i := range s.slots {
		s.slots[i].stale = true
	}
	return nil
}

func (s *frameScheduler) writeAll() error {
	if err := s.drainAll(); err != nil {
		return err
	}
	if err := s.resources.WriteInstanceDataAll(s.instances); err != nil {
		return fmt.Errorf("write instances: %w", err)
	}
	for i := range s.slots {
		s.slots[i].stale = false
	}
	s.stats.InstanceWrites++
	return nil
}

// recreate drains every slot and rebuilds the swapchain at the surface's current size. An extent
// the surface rejects leaves the current generation in place.
func (s *frameScheduler) recreate() error {
	if err := s.drainAll(); err != nil {
		return err
	}

	created, err := s.swapchain.Recreate(s.surface.Size())
	if err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	if !created {
		return nil
	}
	s.stats.Recreations++
	s.needsBuild = true

	n := s.swapchain.ImageCount()
	if n == len(s.slots) {
		return nil
	}

	if _, err := s.resources.EnsureSlots(n); err != nil {
		return fmt.Errorf("resize frame slots: %w", err)
	}
	s.log.Info("frame slot count changed", "from", len(s.slots), "to", n)
	s.slots = make([]frameSlot, n)
	s.previous = -1
	if s.populated {
		return s.writeAll()
	}
	return nil
}

// rebuild records new command sequences for the current generation, recreating the pipeline when
// its baked viewport no longer matches.
func (s *frameScheduler) rebuild() error {
	if err := s.drainAll(); err != nil {
		return err
	}

	extent := s.swapchain.Extent()
	if s.handle == nil || s.handle.Viewport() != extent {
		handle, err := s.device.CreatePipeline(s.pipeline.Descriptor(extent))
		if err != nil {
			return fmt.Errorf("create pipeline %q: %w", s.pipeline.PipelineKey(), err)
		}
		if s.handle != nil {
			s.handle.Release()
		}
		s.handle = handle
	}

	sequences, err := s.submitter.Build(s.swapchain.Targets(), s.handle, s.counts)
	if err != nil {
		return fmt.Errorf("build command sequences: %w", err)
	}
	s.sequences = sequences
	maps.Copy(s.builtCounts, s.counts)
	s.needsBuild = false
	s.stats.Rebuilds++

	s.log.Debug("command sequences rebuilt", "slots", len(sequences), "instances", len(s.instances))
	return nil
}

func (s *frameScheduler) waitSlot(i int) error {
	f := s.slots[i].fence
	if f == nil {
		return nil
	}
	s.slots[i].fence = nil
	if err := f.Wait(); err != nil {
		return fmt.Errorf("wait slot %d: %w", i, err)
	}
	return nil
}

// drainAll waits every pending fence, oldest submission first.
func (s *frameScheduler) drainAll() error {
	n := len(s.slots)
	for k := 1; k <= n; k++ {
		if err := s.waitSlot((s.previous + k + n) % n); err != nil {
			return err
		}
	}
	return nil
}

func (s *frameScheduler) Release() error {
	err := s.drainAll()
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.sequences = nil
	s.resources.Release()
	s.swapchain.Release()
	return err
}
