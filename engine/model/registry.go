package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-frames/common"
)

// DrawRange describes the slice of the shared vertex, index and instance buffers
// that a single indexed-instanced draw reads for one Kind.
type DrawRange struct {
	Kind          Kind
	IndexCount    uint32
	FirstIndex    uint32
	BaseVertex    int32
	InstanceCount uint32
	FirstInstance uint32
}

// Registry is the single ordering of meshes shared by the instance writer and the
// command builder. Instance data for Kinds()[i] always precedes Kinds()[i+1] in a
// frame slot's instance region, and draw offsets accumulate in the same order.
type Registry struct {
	kinds      []Kind
	baseVertex []int32
	firstIndex []uint32
	vertices   []common.Vertex
	indices    []uint16
}

// NewRegistry builds a Registry over the given kinds in the given order.
// With no arguments every Kind is registered in declaration order.
//
// Parameters:
//   - kinds: the kinds to register, each at most once
//
// Returns:
//   - *Registry: the registry with concatenated geometry tables
//   - error: an error if a kind is unknown or registered twice
func NewRegistry(kinds ...Kind) (*Registry, error) {
	if len(kinds) == 0 {
		kinds = Kinds[:]
	}

	r := &Registry{
		kinds:      make([]Kind, 0, len(kinds)),
		baseVertex: make([]int32, 0, len(kinds)),
		firstIndex: make([]uint32, 0, len(kinds)),
	}
	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("model: unknown kind %d", int(k))
		}
		if seen[k] {
			return nil, fmt.Errorf("model: kind %s registered twice", k)
		}
		seen[k] = true

		mesh := meshes[k]
		r.kinds = append(r.kinds, k)
		r.baseVertex = append(r.baseVertex, int32(len(r.vertices)))
		r.firstIndex = append(r.firstIndex, uint32(len(r.indices)))
		r.vertices = append(r.vertices, mesh.Vertices...)
		r.indices = append(r.indices, mesh.Indices...)
	}
	return r, nil
}

// Kinds returns the registration order. The returned slice must not be modified.
func (r *Registry) Kinds() []Kind {
	return r.kinds
}

// Vertices returns every registered vertex, concatenated in registration order.
func (r *Registry) Vertices() []common.Vertex {
	return r.vertices
}

// Indices returns every registered index, concatenated in registration order.
// Indices are relative to their own mesh; draws add the mesh's BaseVertex.
func (r *Registry) Indices() []uint16 {
	return r.indices
}

// Layout computes the draw range of every registered kind for the given per-kind
// instance counts. Ranges are returned in registration order, with index and vertex
// offsets accumulated from the preceding meshes and instance offsets accumulated
// from the preceding instance counts.
//
// Parameters:
//   - counts: the number of instances of each kind; missing kinds count as zero
//
// Returns:
//   - []DrawRange: one range per registered kind
func (r *Registry) Layout(counts map[Kind]uint32) []DrawRange {
	out := make([]DrawRange, len(r.kinds))
	var firstInstance uint32
	for i, k := range r.kinds {
		n := counts[k]
		out[i] = DrawRange{
			Kind:          k,
			IndexCount:    uint32(len(meshes[k].Indices)),
			FirstIndex:    r.firstIndex[i],
			BaseVertex:    r.baseVertex[i],
			InstanceCount: n,
			FirstInstance: firstInstance,
		}
		firstInstance += n
	}
	return out
}

// TotalInstances sums the counts of every registered kind.
func (r *Registry) TotalInstances(counts map[Kind]uint32) uint32 {
	var total uint32
	for _, k := range r.kinds {
		total += counts[k]
	}
	return total
}
