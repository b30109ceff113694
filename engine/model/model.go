package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-frames/common"
)

// Kind identifies one of the meshes the engine knows how to draw.
// The set is closed: every Kind has a static vertex and index table.
type Kind int

const (
	// KindCube is a unit cube spanning [-1, 1] on every axis.
	KindCube Kind = iota

	// KindSquare is a flat quad of side 0.5 in the XY plane.
	KindSquare

	kindCount
)

// Kinds lists every Kind in registration order.
var Kinds = [...]Kind{KindCube, KindSquare}

func (k Kind) String() string {
	switch k {
	case KindCube:
		return "cube"
	case KindSquare:
		return "square"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k names a registered mesh.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Mesh is the immutable geometry of a Kind.
type Mesh struct {
	Vertices []common.Vertex
	Indices  []uint16
}

var meshes = [kindCount]Mesh{
	KindCube: {
		Vertices: []common.Vertex{
			{Position: [3]float32{-1, -1, -1}},
			{Position: [3]float32{1, -1, -1}},
			{Position: [3]float32{1, 1, -1}},
			{Position: [3]float32{-1, 1, -1}},
			{Position: [3]float32{-1, -1, 1}},
			{Position: [3]float32{1, -1, 1}},
			{Position: [3]float32{1, 1, 1}},
			{Position: [3]float32{-1, 1, 1}},
		},
		Indices: []uint16{
			0, 1, 3, 3, 1, 2, 1, 5, 2, 2, 5, 6, 5, 4, 6, 6, 4, 7,
			4, 0, 7, 7, 0, 3, 3, 2, 7, 7, 2, 6, 4, 5, 0, 0, 5, 1,
		},
	},
	KindSquare: {
		Vertices: []common.Vertex{
			{Position: [3]float32{-0.25, -0.25, 0}},
			{Position: [3]float32{0.25, -0.25, 0}},
			{Position: [3]float32{-0.25, 0.25, 0}},
			{Position: [3]float32{0.25, 0.25, 0}},
		},
		Indices: []uint16{0, 1, 2, 1, 2, 3},
	},
}

// MeshOf returns the geometry for k. It panics if k is not a registered Kind.
//
// Parameters:
//   - k: the mesh kind
//
// Returns:
//   - Mesh: the static vertex and index tables of the kind
func MeshOf(k Kind) Mesh {
	if !k.Valid() {
		panic(fmt.Sprintf("model: unknown kind %d", int(k)))
	}
	return meshes[k]
}
