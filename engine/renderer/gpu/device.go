package gpu

// BufferUsage is a bit set describing how a buffer is bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// Buffer is a GPU buffer writable from the CPU through the queue.
type Buffer interface {
	// Size returns the size of the buffer in bytes.
	Size() uint64

	// Write copies data into the buffer at offset.
	//
	// Parameters:
	//   - offset: the byte offset to start writing at
	//   - data: the bytes to copy
	//
	// Returns:
	//   - error: an error if the write falls outside the buffer or the queue rejects it
	Write(offset uint64, data []byte) error

	// Release frees the GPU memory behind the buffer.
	Release()
}

// RenderTarget is the set of attachments one frame slot renders into,
// excluding the presentable image itself which arrives with the Acquisition.
type RenderTarget interface {
	Extent() Extent
	Release()
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace selects the winding order of front-facing triangles.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// PipelineDescriptor describes an instanced render pipeline.
// The viewport is baked in, so a new pipeline is needed after every resize.
type PipelineDescriptor struct {
	Label          string
	ShaderSource   string
	VertexEntry    string
	FragmentEntry  string
	Viewport       Extent
	VertexStride   uint64
	InstanceStride uint64
	UniformSize    uint64

	DepthTest  bool
	DepthWrite bool
	CullMode   CullMode
	FrontFace  FrontFace
}

// PipelineHandle is a created render pipeline.
type PipelineHandle interface {
	Viewport() Extent
	Release()
}

// Encoder is the surface a Recording replays its commands into.
type Encoder interface {
	BeginPass(target RenderTarget) error
	SetPipeline(p PipelineHandle)
	SetUniformBuffer(b Buffer)
	SetVertexBuffer(slot uint32, b Buffer, offset uint64)
	SetIndexBuffer(b Buffer, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	EndPass() error
}

// Recording is a prebuilt command sequence for one frame slot.
type Recording interface {
	// Replay encodes the recorded commands into e.
	//
	// Parameters:
	//   - e: the encoder of the submission being built
	//
	// Returns:
	//   - error: an error if the encoder rejects a command
	Replay(e Encoder) error
}

// Device creates resources and executes recordings.
type Device interface {
	// Config returns the immutable configuration selected when the device was created.
	Config() DeviceConfig

	// CreateBuffer creates a buffer described by desc.
	//
	// Parameters:
	//   - desc: the label, size and usage of the buffer
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if creation fails
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// CreateRenderTargets creates count render targets at the given extent,
	// one per presentable image.
	//
	// Parameters:
	//   - extent: the size of every target
	//   - count: the number of targets
	//
	// Returns:
	//   - []RenderTarget: the created targets, indexed by image index
	//   - error: ErrUnsupportedExtent for a zero-area extent, or a fatal error
	CreateRenderTargets(extent Extent, count int) ([]RenderTarget, error)

	// CreatePipeline creates the render pipeline described by desc.
	//
	// Parameters:
	//   - desc: the shader and layout description
	//
	// Returns:
	//   - PipelineHandle: the created pipeline
	//   - error: an error if shader compilation or pipeline creation fails
	CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error)

	// Submit executes rec for the acquired image after the work behind after has been ordered,
	// queues presentation of the image and returns the fence of the submission.
	//
	// Parameters:
	//   - after: the upstream dependency; Ready() when there is none
	//   - acquired: the acquisition the recording renders into
	//   - rec: the recording of the acquired image's frame slot
	//
	// Returns:
	//   - Fence: the completion signal of this submission
	//   - error: ErrOutOfDate if presentation found the chain stale, ErrDeviceLost, or a transient error
	Submit(after Fence, acquired Acquisition, rec Recording) (Fence, error)
}
