package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	buffer *wgpu.Buffer
	queue  *wgpu.Queue
	size   uint64
}

var _ gpu.Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Write(offset uint64, data []byte) error {
	if b.buffer == nil {
		return errors.New("write to released buffer")
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("write of %d bytes at %d overflows buffer of %d bytes", len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	return b.queue.WriteBuffer(b.buffer, offset, data)
}

func (b *wgpuBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

// wgpuRenderTarget holds the per-image attachments. The swapchain color view itself is
// supplied per submission by the acquired surface texture.
type wgpuRenderTarget struct {
	extent gpu.Extent

	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
}

var _ gpu.RenderTarget = &wgpuRenderTarget{}

func (t *wgpuRenderTarget) Extent() gpu.Extent {
	return t.extent
}

func (t *wgpuRenderTarget) Release() {
	if t.msaaView != nil {
		t.msaaView.Release()
		t.msaaView = nil
	}
	if t.msaaTexture != nil {
		t.msaaTexture.Release()
		t.msaaTexture = nil
	}
	if t.depthView != nil {
		t.depthView.Release()
		t.depthView = nil
	}
	if t.depthTexture != nil {
		t.depthTexture.Release()
		t.depthTexture = nil
	}
}

type wgpuPipeline struct {
	device          *wgpu.Device
	pipeline        *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout
	viewport        gpu.Extent

	// one bind group per uniform buffer, created on first use
	bindGroups map[*wgpuBuffer]*wgpu.BindGroup
}

var _ gpu.PipelineHandle = &wgpuPipeline{}

func (p *wgpuPipeline) Viewport() gpu.Extent {
	return p.viewport
}

func (p *wgpuPipeline) bindGroup(uniform *wgpuBuffer) (*wgpu.BindGroup, error) {
	if bg, ok := p.bindGroups[uniform]; ok {
		return bg, nil
	}
	bg, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: p.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  uniform.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	p.bindGroups[uniform] = bg
	return bg, nil
}

func (p *wgpuPipeline) Release() {
	for key, bg := range p.bindGroups {
		bg.Release()
		delete(p.bindGroups, key)
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}

// wgpuFence completes when the queue has finished the submission it was created for.
type wgpuFence struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	index  wgpu.SubmissionIndex
	done   bool
}

var _ gpu.Fence = &wgpuFence{}

func (f *wgpuFence) Wait() error {
	if f.done {
		return nil
	}
	if f.device == nil {
		return gpu.ErrDeviceLost
	}
	f.device.Poll(true, &wgpu.WrappedSubmissionIndex{
		Queue:           f.queue,
		SubmissionIndex: f.index,
	})
	f.done = true
	return nil
}

// wgpuEncoder translates recorded operations into a WebGPU render pass.
type wgpuEncoder struct {
	backend  *wgpuRendererBackendImpl
	encoder  *wgpu.CommandEncoder
	swapView *wgpu.TextureView

	pass     *wgpu.RenderPassEncoder
	pipeline *wgpuPipeline
	err      error
}

var _ gpu.Encoder = &wgpuEncoder{}

func (e *wgpuEncoder) BeginPass(target gpu.RenderTarget) error {
	t, ok := target.(*wgpuRenderTarget)
	if !ok {
		return fmt.Errorf("render target %T was not created by this device", target)
	}
	if e.pass != nil {
		return errors.New("render pass already open")
	}

	color := wgpu.RenderPassColorAttachment{
		View:    e.swapView,
		LoadOp:  wgpu.LoadOpClear,
		StoreOp: wgpu.StoreOpStore,
		ClearValue: wgpu.Color{
			R: 0.1, G: 0.1, B: 0.1, A: 1.0,
		},
	}
	if t.msaaView != nil {
		color.View = t.msaaView
		color.ResolveTarget = e.swapView
		color.StoreOp = wgpu.StoreOpDiscard
	}

	e.pass = e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            t.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	e.pass.SetViewport(0, 0, float32(t.extent.Width), float32(t.extent.Height), 0, 1)
	return nil
}

func (e *wgpuEncoder) SetPipeline(p gpu.PipelineHandle) {
	wp, ok := p.(*wgpuPipeline)
	if !ok || e.pass == nil {
		e.fail(fmt.Errorf("set pipeline %T outside a pass or from another device", p))
		return
	}
	e.pipeline = wp
	e.pass.SetPipeline(wp.pipeline)
}

func (e *wgpuEncoder) SetUniformBuffer(b gpu.Buffer) {
	wb, ok := b.(*wgpuBuffer)
	if !ok || e.pipeline == nil {
		e.fail(errors.New("uniform buffer bound before pipeline"))
		return
	}
	bg, err := e.pipeline.bindGroup(wb)
	if err != nil {
		e.fail(fmt.Errorf("create frame bind group: %w", err))
		return
	}
	e.pass.SetBindGroup(0, bg, nil)
}

func (e *wgpuEncoder) SetVertexBuffer(slot uint32, b gpu.Buffer, offset uint64) {
	wb, ok := b.(*wgpuBuffer)
	if !ok || e.pass == nil {
		e.fail(fmt.Errorf("vertex buffer slot %d bound outside a pass", slot))
		return
	}
	e.pass.SetVertexBuffer(slot, wb.buffer, offset, wgpu.WholeSize)
}

func (e *wgpuEncoder) SetIndexBuffer(b gpu.Buffer, offset uint64) {
	wb, ok := b.(*wgpuBuffer)
	if !ok || e.pass == nil {
		e.fail(errors.New("index buffer bound outside a pass"))
		return
	}
	e.pass.SetIndexBuffer(wb.buffer, wgpu.IndexFormatUint16, offset, wgpu.WholeSize)
}

func (e *wgpuEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if e.pass == nil {
		e.fail(errors.New("draw outside a pass"))
		return
	}
	e.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (e *wgpuEncoder) EndPass() error {
	if e.pass == nil {
		return errors.New("no render pass open")
	}
	e.pass.End()
	e.pass.Release()
	e.pass = nil
	return e.err
}

// fail records the first encoding error; it is reported by EndPass.
func (e *wgpuEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
