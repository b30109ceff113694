// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Vertex is a single mesh vertex as laid out in the shared vertex buffer.
type Vertex struct {
	// Position is the object-space position of the vertex.
	Position [3]float32
}

// InstanceData is the per-object record consumed by instanced draw calls.
// Its memory layout matches the instance vertex buffer (stride 80 bytes).
type InstanceData struct {
	// Model is the object's world transform, column-major.
	Model [16]float32
	// Color is the object's RGBA color.
	Color [4]float32
}

// FrameUniform holds the per-frame values shared by every draw call of a frame slot.
type FrameUniform struct {
	// ProjectionView is the camera's combined projection-view matrix, column-major.
	ProjectionView [16]float32
}
