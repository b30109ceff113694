package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryDefaultOrder(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindCube, KindSquare}, r.Kinds())
	assert.Len(t, r.Vertices(), 12)
	assert.Len(t, r.Indices(), 42)
}

func TestNewRegistryRejectsDuplicatesAndUnknown(t *testing.T) {
	_, err := NewRegistry(KindCube, KindCube)
	assert.Error(t, err)

	_, err = NewRegistry(Kind(42))
	assert.Error(t, err)
}

func TestLayoutAccumulatesOffsets(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	ranges := r.Layout(map[Kind]uint32{KindCube: 3, KindSquare: 2})
	require.Len(t, ranges, 2)

	assert.Equal(t, DrawRange{Kind: KindCube, IndexCount: 36, FirstIndex: 0, BaseVertex: 0, InstanceCount: 3, FirstInstance: 0}, ranges[0])
	assert.Equal(t, DrawRange{Kind: KindSquare, IndexCount: 6, FirstIndex: 36, BaseVertex: 8, InstanceCount: 2, FirstInstance: 3}, ranges[1])
	assert.Equal(t, uint32(5), r.TotalInstances(map[Kind]uint32{KindCube: 3, KindSquare: 2}))
}

func TestLayoutFollowsRegistrationOrder(t *testing.T) {
	r, err := NewRegistry(KindSquare, KindCube)
	require.NoError(t, err)

	ranges := r.Layout(map[Kind]uint32{KindCube: 1, KindSquare: 4})
	assert.Equal(t, KindSquare, ranges[0].Kind)
	assert.Equal(t, uint32(0), ranges[0].FirstInstance)
	assert.Equal(t, int32(4), ranges[1].BaseVertex)
	assert.Equal(t, uint32(6), ranges[1].FirstIndex)
	assert.Equal(t, uint32(4), ranges[1].FirstInstance)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "cube", KindCube.String())
	assert.Equal(t, "square", KindSquare.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Panics(t, func() { MeshOf(Kind(9)) })
}
