package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRendererBackend drives a WebGPU surface and device through the backend-neutral gpu
// interfaces. WebGPU exposes a single queue and hands out one surface texture at a time, so the
// image count reported by Configure is the configured frames-in-flight count and image indices
// are assigned round-robin.
type wgpuRendererBackend interface {
	gpu.Device
	gpu.Surface

	// Release destroys the device, surface, and instance.
	Release()
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	log    *slog.Logger
	config gpu.DeviceConfig

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	extent        gpu.Extent

	// sizeFunc reports the current framebuffer size of the window backing the surface.
	sizeFunc func() (int, int)

	// next is the round-robin image counter, reset on every Configure.
	next int
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

// wgpuBackendOptions collects the renderer options that shape device creation.
type wgpuBackendOptions struct {
	presentMode          gpu.PresentMode
	sampleCount          MSAASampleCount
	framesInFlight       int
	forceFallbackAdapter bool
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, sizeFunc func() (int, int), opts wgpuBackendOptions, log *slog.Logger) (wgpuRendererBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("window has no surface descriptor")
	}
	runtime.LockOSThread()

	b := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		log:      log,
		instance: wgpu.CreateInstance(nil),
		sizeFunc: sizeFunc,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, errors.New("surface reports no supported formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.presentMode = choosePresentMode(opts.presentMode, capabilities.PresentModes)

	sampleCount := opts.sampleCount
	if sampleCount == 0 {
		sampleCount = MSAA4x
	}
	info := a.GetInfo()
	b.config = gpu.DeviceConfig{
		AdapterName:    info.Name,
		Backend:        info.BackendType.String(),
		PresentMode:    opts.presentMode,
		SampleCount:    uint32(sampleCount),
		DepthFormat:    "depth24plus",
		FramesInFlight: opts.framesInFlight,
	}

	b.log.Info("adapter selected",
		slog.String("adapter", b.config.AdapterName),
		slog.String("backend", b.config.Backend),
		slog.String("present_mode", b.config.PresentMode.String()),
		slog.Int("samples", int(b.config.SampleCount)),
		slog.Int("frames_in_flight", b.config.Frames()),
	)

	return b, nil
}

// choosePresentMode maps the requested mode onto one the surface supports. FIFO is always available.
func choosePresentMode(mode gpu.PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	if mode == gpu.PresentModeUncapped {
		if slices.Contains(supported, wgpu.PresentModeImmediate) {
			return wgpu.PresentModeImmediate
		}
		if slices.Contains(supported, wgpu.PresentModeMailbox) {
			return wgpu.PresentModeMailbox
		}
	}
	return wgpu.PresentModeFifo
}

func (b *wgpuRendererBackendImpl) Config() gpu.DeviceConfig {
	return b.config
}

func (b *wgpuRendererBackendImpl) Size() gpu.Extent {
	w, h := b.sizeFunc()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return gpu.Extent{Width: uint32(w), Height: uint32(h)}
}

func (b *wgpuRendererBackendImpl) Configure(extent gpu.Extent) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if extent.Empty() {
		return 0, gpu.ErrUnsupportedExtent
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       extent.Width,
		Height:      extent.Height,
		PresentMode: b.presentMode,
		AlphaMode:   alphaMode,
	})
	b.extent = extent
	b.next = 0

	return b.config.Frames(), nil
}

func (b *wgpuRendererBackendImpl) Acquire() (gpu.Acquisition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.extent.Empty() {
		return gpu.Acquisition{}, gpu.ErrOutOfDate
	}

	texture, err := b.surface.GetCurrentTexture()
	if err != nil {
		// wgpu reports timeout, outdated, and lost surfaces here; all of them are cured by reconfiguring
		return gpu.Acquisition{}, fmt.Errorf("%w: %v", gpu.ErrOutOfDate, err)
	}

	index := b.next % b.config.Frames()
	b.next++
	return gpu.Acquisition{ImageIndex: index, Token: texture}, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	usage := wgpu.BufferUsageCopyDst
	if desc.Usage&gpu.BufferUsageVertex != 0 {
		usage |= wgpu.BufferUsageVertex
	}
	if desc.Usage&gpu.BufferUsageIndex != 0 {
		usage |= wgpu.BufferUsageIndex
	}
	if desc.Usage&gpu.BufferUsageUniform != 0 {
		usage |= wgpu.BufferUsageUniform
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{buffer: buf, queue: b.queue, size: desc.Size}, nil
}

func (b *wgpuRendererBackendImpl) CreateRenderTargets(extent gpu.Extent, count int) ([]gpu.RenderTarget, error) {
	if extent.Empty() {
		return nil, gpu.ErrUnsupportedExtent
	}

	targets := make([]gpu.RenderTarget, 0, count)
	for i := 0; i < count; i++ {
		t, err := b.createRenderTarget(extent, i)
		if err != nil {
			for _, created := range targets {
				created.Release()
			}
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (b *wgpuRendererBackendImpl) createRenderTarget(extent gpu.Extent, image int) (*wgpuRenderTarget, error) {
	count := b.config.SampleCount
	t := &wgpuRenderTarget{extent: extent}

	size := wgpu.Extent3D{
		Width:              extent.Width,
		Height:             extent.Height,
		DepthOrArrayLayers: 1,
	}

	if count > 1 {
		// The pass draws into the MSAA texture and resolves into the swapchain image.
		msaa, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         fmt.Sprintf("MSAA Texture %d", image),
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return nil, fmt.Errorf("create msaa texture: %w", err)
		}
		t.msaaTexture = msaa
		t.msaaView, err = msaa.CreateView(nil)
		if err != nil {
			t.Release()
			return nil, fmt.Errorf("create msaa view: %w", err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depth, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         fmt.Sprintf("Depth Texture %d", image),
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("create depth texture: %w", err)
	}
	t.depthTexture = depth
	t.depthView, err = depth.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("create depth view: %w", err)
	}

	return t, nil
}

func (b *wgpuRendererBackendImpl) CreatePipeline(desc gpu.PipelineDescriptor) (gpu.PipelineHandle, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.ShaderSource,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", desc.Label, err)
	}
	defer module.Release()

	bindGroupLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: desc.Label + " Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: desc.UniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		bindGroupLayout.Release()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	depthCompare := wgpu.CompareFunctionLess
	if !desc.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    vertexBufferLayouts(desc),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: toWGPUFrontFace(desc.FrontFace),
			CullMode:  toWGPUCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: b.config.SampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		bindGroupLayout.Release()
		return nil, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}

	return &wgpuPipeline{
		device:          b.device,
		pipeline:        created,
		bindGroupLayout: bindGroupLayout,
		viewport:        desc.Viewport,
		bindGroups:      make(map[*wgpuBuffer]*wgpu.BindGroup),
	}, nil
}

// vertexBufferLayouts describes the per-vertex mesh buffer at slot 0 and the per-instance
// buffer at slot 1 (four model matrix columns followed by a color).
func vertexBufferLayouts(desc gpu.PipelineDescriptor) []wgpu.VertexBufferLayout {
	instanceAttrs := make([]wgpu.VertexAttribute, 0, 5)
	for i := 0; i < 5; i++ {
		instanceAttrs = append(instanceAttrs, wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x4,
			Offset:         uint64(i) * 16,
			ShaderLocation: uint32(i + 1),
		})
	}

	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: desc.VertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         wgpu.VertexFormatFloat32x3,
					Offset:         0,
					ShaderLocation: 0,
				},
			},
		},
		{
			ArrayStride: desc.InstanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes:  instanceAttrs,
		},
	}
}

func toWGPUCullMode(m gpu.CullMode) wgpu.CullMode {
	switch m {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func toWGPUFrontFace(f gpu.FrontFace) wgpu.FrontFace {
	if f == gpu.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

// Submit replays rec into a fresh command encoder, submits it, and presents the acquired
// surface texture. WebGPU executes submissions in queue order, so after needs no explicit wait.
func (b *wgpuRendererBackendImpl) Submit(after gpu.Fence, acquired gpu.Acquisition, rec gpu.Recording) (gpu.Fence, error) {
	texture, ok := acquired.Token.(*wgpu.Texture)
	if !ok || texture == nil {
		return nil, fmt.Errorf("acquisition %d carries no surface texture", acquired.ImageIndex)
	}
	defer texture.Release()

	view, err := texture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("create swapchain view: %w", err)
	}
	defer view.Release()

	commandEncoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	defer commandEncoder.Release()

	enc := &wgpuEncoder{
		backend:  b,
		encoder:  commandEncoder,
		swapView: view,
	}
	if err := rec.Replay(enc); err != nil {
		return nil, err
	}

	commandBuffer, err := commandEncoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish command encoder: %w", err)
	}
	defer commandBuffer.Release()

	b.mu.Lock()
	index := b.queue.Submit(commandBuffer)
	b.surface.Present()
	b.mu.Unlock()

	return &wgpuFence{device: b.device, queue: b.queue, index: index}, nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
