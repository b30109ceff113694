package scene

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/common"
	"github.com/Carmen-Shannon/oxy-frames/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSceneStartsChanged(t *testing.T) {
	s := NewScene("empty")
	assert.True(t, s.Changed())
	s.ClearChanged()
	assert.False(t, s.Changed())
	assert.Equal(t, 0, s.ObjectCount())
}

func TestAddAssignsIDsAndGroupsByKind(t *testing.T) {
	s := NewScene("default", WithObjects(DefaultObjects()...))

	assert.Equal(t, 3, s.ObjectCount())
	assert.Equal(t, 2, s.InstanceCount(model.KindCube))
	assert.Equal(t, 1, s.InstanceCount(model.KindSquare))

	for id := uint64(1); id <= 3; id++ {
		require.NotNil(t, s.Object(id), "id %d", id)
	}
}

func TestObjectMutationMarksSceneChanged(t *testing.T) {
	cube := game_object.NewCube([3]float32{}, [3]float32{1, 1, 1})
	s := NewScene("s", WithObjects(cube))
	s.ClearChanged()

	cube.SetPosition(1, 2, 3)
	assert.True(t, s.Changed())

	s.ClearChanged()
	require.True(t, s.Remove(cube.ID()))
	assert.True(t, s.Changed())

	s.ClearChanged()
	cube.SetPosition(0, 0, 0)
	assert.False(t, s.Changed(), "removed objects no longer notify")
	assert.False(t, s.Remove(cube.ID()))
}

func TestAppendInstancesKeepsInsertionOrderAndSkipsDisabled(t *testing.T) {
	a := game_object.NewSquare([3]float32{1, 0, 0}, [3]float32{1, 0, 0})
	b := game_object.NewSquare([3]float32{2, 0, 0}, [3]float32{0, 1, 0})
	c := game_object.NewSquare([3]float32{3, 0, 0}, [3]float32{0, 0, 1})
	s := NewScene("s", WithObjects(a, b, c))

	b.SetEnabled(false)
	assert.Equal(t, 2, s.InstanceCount(model.KindSquare))

	prefix := []common.InstanceData{{}}
	got := s.AppendInstances(model.KindSquare, prefix)
	require.Len(t, got, 3)
	assert.Equal(t, float32(1), got[1].Model[12])
	assert.Equal(t, float32(3), got[2].Model[12])
	assert.Empty(t, s.AppendInstances(model.KindCube, nil))
}

func TestAppendInstancesParallelMatchesSerial(t *testing.T) {
	serial := NewScene("serial", WithCubeGrid(6, 42), WithParallelThreshold(1<<30))
	parallel := NewScene("parallel", WithCubeGrid(6, 42), WithParallelThreshold(8), WithComputeWorkers(4))

	want := serial.AppendInstances(model.KindCube, nil)
	got := parallel.AppendInstances(model.KindCube, nil)
	require.Len(t, want, 216)
	assert.Equal(t, want, got)
}

func TestGenerateCubeGrid(t *testing.T) {
	cubes := GenerateCubeGrid(3, 7)
	require.Len(t, cubes, 27)

	for idx, c := range cubes {
		i, j, k := idx/9, (idx/3)%3, idx%3
		pos := c.Position()
		assert.Equal(t, model.KindCube, c.Kind())
		assert.Equal(t, float32(GridCubeScale), c.Scale())
		assert.InDelta(t, float32(i), pos[0], 0.5)
		assert.InDelta(t, float32(j), pos[1], 0.5)
		assert.InDelta(t, float32(k), pos[2], 0.5)
	}

	again := GenerateCubeGrid(3, 7)
	assert.Equal(t, cubes[5].Position(), again[5].Position())
	assert.Nil(t, GenerateCubeGrid(0, 7))
}

func TestAdvanceMarksChangedOnlyForSpinningObjects(t *testing.T) {
	still := NewScene("still", WithObjects(game_object.NewCube([3]float32{}, [3]float32{1, 1, 1})))
	still.ClearChanged()
	still.Advance(time.Second)
	assert.False(t, still.Changed())

	spinning := NewScene("spinning", WithObjects(DefaultObjects()...))
	spinning.ClearChanged()
	spinning.Advance(time.Second)
	assert.True(t, spinning.Changed())
}
