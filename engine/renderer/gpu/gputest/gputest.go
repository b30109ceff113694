// Package gputest provides an in-memory gpu.Device and gpu.Surface for tests.
//
// Submissions replay their recording into a capturing encoder, so tests can read back the
// draws, buffers and targets a frame used. Fences complete when waited; the device counts
// outstanding fences so tests can bound frames in flight.
package gputest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
)

// Draw is one captured DrawIndexed call.
type Draw struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Submission is everything captured from one successful Submit call.
type Submission struct {
	Image    int
	After    gpu.Fence
	Fence    *Fence
	Target   *Target
	Pipeline *Pipeline
	Uniform  *Buffer
	Vertex   map[uint32]*Buffer
	Index    *Buffer
	Draws    []Draw
}

// Device is a fake gpu.Device. The zero value is not usable; call NewDevice.
type Device struct {
	mu *sync.Mutex

	config gpu.DeviceConfig

	// SubmitErr, when set, is consulted on every Submit with the 1-based attempt number.
	// A non-nil result fails the submission without producing a fence.
	SubmitErr func(attempt int) error

	// TargetErr, when set, fails CreateRenderTargets.
	TargetErr error

	buffers     []*Buffer
	targets     [][]*Target
	pipelines   []*Pipeline
	submissions []Submission

	attempts       int
	nextFence      int
	outstanding    int
	maxOutstanding int
	waits          int
}

var _ gpu.Device = &Device{}

// NewDevice creates a fake device reporting the given configuration.
func NewDevice(config gpu.DeviceConfig) *Device {
	if config.AdapterName == "" {
		config.AdapterName = "gputest"
	}
	if config.Backend == "" {
		config.Backend = "fake"
	}
	return &Device{
		mu:     &sync.Mutex{},
		config: config,
	}
}

func (d *Device) Config() gpu.DeviceConfig {
	return d.config
}

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if desc.Size == 0 {
		return nil, fmt.Errorf("gputest: buffer %q has zero size", desc.Label)
	}
	b := &Buffer{
		mu:    &sync.Mutex{},
		Label: desc.Label,
		Usage: desc.Usage,
		data:  make([]byte, desc.Size),
	}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *Device) CreateRenderTargets(extent gpu.Extent, count int) ([]gpu.RenderTarget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.TargetErr != nil {
		return nil, d.TargetErr
	}
	if extent.Empty() {
		return nil, fmt.Errorf("gputest: render targets %dx%d: %w", extent.Width, extent.Height, gpu.ErrUnsupportedExtent)
	}

	generation := len(d.targets)
	created := make([]*Target, count)
	out := make([]gpu.RenderTarget, count)
	for i := range created {
		created[i] = &Target{size: extent, Generation: generation, Image: i}
		out[i] = created[i]
	}
	d.targets = append(d.targets, created)
	return out, nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDescriptor) (gpu.PipelineHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := &Pipeline{Desc: desc}
	d.pipelines = append(d.pipelines, p)
	return p, nil
}

func (d *Device) Submit(after gpu.Fence, acquired gpu.Acquisition, rec gpu.Recording) (gpu.Fence, error) {
	d.mu.Lock()
	d.attempts++
	attempt := d.attempts
	hook := d.SubmitErr
	d.mu.Unlock()

	enc := &encoder{sub: Submission{Image: acquired.ImageIndex, After: after, Vertex: make(map[uint32]*Buffer)}}
	if err := rec.Replay(enc); err != nil {
		return nil, fmt.Errorf("gputest: replay: %w", err)
	}
	if enc.open {
		return nil, fmt.Errorf("gputest: render pass left open")
	}
	if hook != nil {
		if err := hook(attempt); err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextFence++
	f := &Fence{ID: d.nextFence, Image: acquired.ImageIndex, dev: d}
	enc.sub.Fence = f
	d.submissions = append(d.submissions, enc.sub)
	d.outstanding++
	if d.outstanding > d.maxOutstanding {
		d.maxOutstanding = d.outstanding
	}
	return f, nil
}

// Submissions returns a copy of every successful submission in order.
func (d *Device) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Submission(nil), d.submissions...)
}

// Buffers returns every buffer created so far, in creation order.
func (d *Device) Buffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Buffer(nil), d.buffers...)
}

// TargetGenerations returns how many times CreateRenderTargets succeeded.
func (d *Device) TargetGenerations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.targets)
}

// Pipelines returns every pipeline created so far.
func (d *Device) Pipelines() []*Pipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Pipeline(nil), d.pipelines...)
}

// Outstanding returns the number of fences submitted and not yet waited.
func (d *Device) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outstanding
}

// MaxOutstanding returns the largest value Outstanding has reached.
func (d *Device) MaxOutstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOutstanding
}

// Waits returns the number of Fence.Wait calls made on this device's fences.
func (d *Device) Waits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waits
}

// Fence is a fake fence; it signals when waited.
type Fence struct {
	ID    int
	Image int

	// Err is returned from Wait when set.
	Err error

	dev    *Device
	waited bool
}

func (f *Fence) Wait() error {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()

	f.dev.waits++
	if !f.waited {
		f.waited = true
		f.dev.outstanding--
	}
	return f.Err
}

// Waited reports whether Wait has been called on f.
func (f *Fence) Waited() bool {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()
	return f.waited
}

// Buffer is a fake buffer backed by a byte slice.
type Buffer struct {
	mu *sync.Mutex

	Label string
	Usage gpu.BufferUsage

	data     []byte
	writes   int
	released bool
}

func (b *Buffer) Size() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.data))
}

func (b *Buffer) Write(offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("gputest: write to released buffer %q", b.Label)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("gputest: write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, b.Label, len(b.data))
	}
	copy(b.data[offset:], data)
	b.writes++
	return nil
}

func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

// Writes returns the number of successful Write calls.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Target is a fake render target.
type Target struct {
	Generation int
	Image      int
	Released   bool

	size gpu.Extent
}

func (t *Target) Extent() gpu.Extent { return t.size }
func (t *Target) Release()           { t.Released = true }

// Pipeline is a fake pipeline holding its descriptor.
type Pipeline struct {
	Desc     gpu.PipelineDescriptor
	Released bool
}

func (p *Pipeline) Viewport() gpu.Extent { return p.Desc.Viewport }
func (p *Pipeline) Release()             { p.Released = true }

type encoder struct {
	sub  Submission
	open bool
}

func (e *encoder) BeginPass(target gpu.RenderTarget) error {
	t, ok := target.(*Target)
	if !ok {
		return fmt.Errorf("gputest: foreign render target %T", target)
	}
	if t.Released {
		return fmt.Errorf("gputest: render target %d/%d was released", t.Generation, t.Image)
	}
	e.sub.Target = t
	e.open = true
	return nil
}

func (e *encoder) SetPipeline(p gpu.PipelineHandle) {
	e.sub.Pipeline, _ = p.(*Pipeline)
}

func (e *encoder) SetUniformBuffer(b gpu.Buffer) {
	e.sub.Uniform, _ = b.(*Buffer)
}

func (e *encoder) SetVertexBuffer(slot uint32, b gpu.Buffer, _ uint64) {
	buf, _ := b.(*Buffer)
	e.sub.Vertex[slot] = buf
}

func (e *encoder) SetIndexBuffer(b gpu.Buffer, _ uint64) {
	e.sub.Index, _ = b.(*Buffer)
}

func (e *encoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	e.sub.Draws = append(e.sub.Draws, Draw{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

func (e *encoder) EndPass() error {
	if !e.open {
		return fmt.Errorf("gputest: EndPass without BeginPass")
	}
	e.open = false
	return nil
}
